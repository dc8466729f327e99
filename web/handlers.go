package web

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/diag"
	"github.com/mogaika/obj_scene_viewer/scene"
	"github.com/mogaika/obj_scene_viewer/status"
	"github.com/mogaika/obj_scene_viewer/utils/gltfutils"
	"github.com/mogaika/obj_scene_viewer/webutils"
)

func HandlerAjaxScene(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, ServerInventory)
}

func HandlerAjaxSceneModel(w http.ResponseWriter, r *http.Request) {
	param := mux.Vars(r)["id"]
	id, err := uuid.Parse(param)
	if err != nil {
		webutils.WriteErrorStatus(w, http.StatusBadRequest, errors.Wrapf(err, "Invalid model id %q", param))
		return
	}
	if m, ok := ServerInventory.Model(id); ok {
		webutils.WriteJson(w, m)
	} else {
		webutils.WriteErrorStatus(w, http.StatusNotFound, errors.Errorf("Model %v not found", id))
	}
}

func HandlerAjaxMaterials(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, ServerInventory.Materials)
}

// HandlerAjaxDiagnostics lists the import diagnostics, optionally only
// those of the kind given by the "kind" query parameter.
func HandlerAjaxDiagnostics(w http.ResponseWriter, r *http.Request) {
	items := ServerInventory.Diagnostics
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := make([]diag.Diagnostic, 0)
		for _, d := range items {
			if d.Kind.String() == kind {
				filtered = append(filtered, d)
			}
		}
		items = filtered
	}
	if items == nil {
		items = []diag.Diagnostic{}
	}
	webutils.WriteJson(w, items)
}

func HandlerActionScene(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	if ServerScene == nil {
		webutils.WriteErrorStatus(w, http.StatusNotFound, errors.New("Scene is not available for export"))
		return
	}
	switch action {
	case "gltf":
		// models do not change after the scene is built
		doc, err := scene.ExportGLTF(ServerScene)
		if err != nil {
			webutils.WriteError(w, err)
			return
		}
		webutils.WriteFileHeaders(w, ServerInventory.Name+".glb")
		if err := gltfutils.ExportBinary(w, doc); err != nil {
			log.Printf("[web] Failed to encode gltf: %v", err)
		}
	case "fbx":
		name := ServerInventory.Name + ".fbx"
		webutils.WriteFileHeaders(w, name)
		if err := scene.ExportFBX(ServerScene, name).Write(w); err != nil {
			log.Printf("[web] Error when exporting scene as fbx: %v", err)
		}
	default:
		webutils.WriteErrorStatus(w, http.StatusNotFound, errors.Errorf("Unknown action %q", action))
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func HandlerWebsocketStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}
	status.NewClient(conn)
}
