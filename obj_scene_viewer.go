package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/obj_scene_viewer/asset/obj"
	"github.com/mogaika/obj_scene_viewer/config"
	"github.com/mogaika/obj_scene_viewer/glbackend"
	"github.com/mogaika/obj_scene_viewer/r3d"
	"github.com/mogaika/obj_scene_viewer/r3d/recorder"
	"github.com/mogaika/obj_scene_viewer/scene"
	"github.com/mogaika/obj_scene_viewer/status"
	"github.com/mogaika/obj_scene_viewer/utils"
	"github.com/mogaika/obj_scene_viewer/utils/gltfutils"
	"github.com/mogaika/obj_scene_viewer/web"
)

func init() {
	// glfw and OpenGL calls must come from the main thread
	runtime.LockOSThread()
}

func main() {
	var addr, scenePath, encoding, vertexMode, exportPath string
	var headless, dump, check bool
	var frames int
	flag.StringVar(&addr, "i", ":8000", "Address of inventory server, empty to disable")
	flag.StringVar(&scenePath, "scene", "scenes/demo.yaml", "Path to scene description")
	flag.StringVar(&encoding, "encoding", "", "Charmap of model files (e.g. \"Windows 1251\"), default utf-8")
	flag.StringVar(&vertexMode, "vertices", "split", "Vertex mode of the importer: 'split' or 'slice'")
	flag.BoolVar(&headless, "headless", false, "Render into a recording device instead of a window")
	flag.BoolVar(&dump, "dump", false, "Dump the scene inventory to stdout")
	flag.StringVar(&exportPath, "export", "", "Export the built scene to a .glb or .fbx file")
	flag.BoolVar(&check, "check", false, "Import the obj files given as arguments and report problems")
	flag.IntVar(&frames, "frames", 0, "Stop after that many frames, 0 runs until the window closes or renders one frame headless")
	flag.Parse()

	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			log.Fatalf("%v, known: %v", err, config.ListEncodings())
		}
	}
	mode, err := obj.ParseVertexMode(vertexMode)
	if err != nil {
		log.Fatal(err)
	}

	if check {
		if flag.NArg() == 0 {
			flag.PrintDefaults()
			return
		}
		os.Exit(parseCheck(flag.Args(), mode))
	}

	desc, err := config.LoadScene(scenePath)
	if err != nil {
		log.Fatal(err)
	}

	if headless {
		err = runHeadless(desc, mode, frames, dump, exportPath, addr)
	} else {
		err = runWindow(desc, mode, frames, exportPath, addr)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func exportScene(path string, sc *r3d.Scene) error {
	if path == "" {
		return nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb":
		doc, err := scene.ExportGLTF(sc)
		if err != nil {
			return err
		}
		if err := gltfutils.SaveBinary(path, doc); err != nil {
			return err
		}
	case ".fbx":
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrapf(err, "Failed to create %q", path)
		}
		defer f.Close()
		if err := scene.ExportFBX(sc, path).Write(f); err != nil {
			return errors.Wrapf(err, "Failed to export %q", path)
		}
	default:
		return errors.Errorf("Unknown export format %q", filepath.Ext(path))
	}
	log.Printf("[main] Exported scene to %q", path)
	return nil
}

func serve(addr string, res *scene.Result) {
	if addr == "" {
		return
	}
	go func() {
		if err := web.StartServer(addr, res.Inventory, res.Scene); err != nil {
			log.Printf("[web] Server stopped: %v", err)
		}
	}()
}

func runHeadless(desc *config.Scene, mode obj.VertexMode, frames int, dump bool, exportPath, addr string) error {
	dev := recorder.NewDevice()
	res, err := scene.Build(desc, dev, scene.Options{VertexMode: mode})
	if err != nil {
		return err
	}
	if dump {
		utils.Dump(res.Inventory)
	}
	if err := exportScene(exportPath, res.Scene); err != nil {
		return err
	}

	sched := r3d.NewScheduler(dev, res.Scene)
	if frames <= 0 {
		frames = 1
	}
	for i := 0; i < frames; i++ {
		res.Camera.Advance(time.Second / 60)
		res.Scene.Context.View = res.Camera.GetViewMatrix()
		if err := sched.RenderFrame(); err != nil {
			return err
		}
		dev.Reset()
	}
	stats := sched.Stats()
	log.Printf("[main] Rendered %d frames headless, last: %d shadow, %d environment, %d main draws",
		stats.Frame, stats.ShadowDraws, stats.EnvironmentDraws, stats.MainDraws)
	status.Frame(stats)

	if addr == "" {
		return nil
	}
	return web.StartServer(addr, res.Inventory, res.Scene)
}

func runWindow(desc *config.Scene, mode obj.VertexMode, frames int, exportPath, addr string) error {
	win, err := glbackend.NewWindow(desc.Window.Title, desc.Window.Width, desc.Window.Height)
	if err != nil {
		return err
	}
	defer win.Destroy()

	res, err := scene.Build(desc, win.Device, scene.Options{VertexMode: mode, Viewport: win.Viewport()})
	if err != nil {
		return err
	}
	if err := exportScene(exportPath, res.Scene); err != nil {
		return err
	}
	serve(addr, res)

	sched := r3d.NewScheduler(win.Device, res.Scene)
	ctx := res.Scene.Context
	lastReport := time.Now()
	return sched.Run(func(dt time.Duration) bool {
		if !win.ProcessEvents() {
			return false
		}
		if frames > 0 && sched.Stats().Frame >= uint64(frames) {
			return false
		}
		res.Camera.Advance(dt)
		ctx.View = res.Camera.GetViewMatrix()
		ctx.Viewport = win.Viewport()

		if time.Since(lastReport) >= time.Second {
			lastReport = time.Now()
			status.Frame(sched.Stats())
		}
		return true
	})
}
