package web

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/obj_scene_viewer/r3d"
	"github.com/mogaika/obj_scene_viewer/scene"
)

var ServerInventory *scene.Inventory

// ServerScene is only read by export actions; nil disables them
var ServerScene *r3d.Scene

func NewRouter(inv *scene.Inventory, sc *r3d.Scene) *mux.Router {
	ServerInventory = inv
	ServerScene = sc

	r := mux.NewRouter()
	r.HandleFunc("/json/scene/{id}", HandlerAjaxSceneModel).Methods("GET")
	r.HandleFunc("/json/scene", HandlerAjaxScene).Methods("GET")
	r.HandleFunc("/json/materials", HandlerAjaxMaterials).Methods("GET")
	r.HandleFunc("/json/diagnostics", HandlerAjaxDiagnostics).Methods("GET")
	r.HandleFunc("/action/scene/{action}", HandlerActionScene).Methods("GET")
	r.HandleFunc("/ws/status", HandlerWebsocketStatus)
	return r
}

func StartServer(addr string, inv *scene.Inventory, sc *r3d.Scene) error {
	r := NewRouter(inv, sc)

	h := handlers.RecoveryHandler()(r)
	h = handlers.CompressHandler(h)
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
