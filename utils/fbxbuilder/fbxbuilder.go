package fbxbuilder

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

const (
	fbxVersion = 7400
	creator    = "obj_scene_viewer FBX exporter"
	// fixed so exports of the same scene are byte-identical
	creationTime = "1970-01-01 00:00:00:000"
)

var fileId = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// FBXBuilder assembles a binary FBX document. Objects are connected to the
// scene root (id 0) by the caller; Definitions are counted on Write.
type FBXBuilder struct {
	f      *fbx.FBX
	cache  map[interface{}]int64
	lastId int64

	definitions *fbx.Node
	objects     *fbx.Node
	connections *fbx.Node
}

func NewFBXBuilder(filename string) *FBXBuilder {
	f := &FBXBuilder{
		f:           fbx.NewFBX(fbxVersion),
		cache:       make(map[interface{}]int64),
		lastId:      1000000,
		definitions: bfbx73.Definitions(),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
	f.Root().AddNodes(
		header(filename),
		bfbx73.FileId(fileId),
		bfbx73.CreationTime(creationTime),
		bfbx73.Creator(creator),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		f.definitions,
		f.objects,
		f.connections,
	)
	return f
}

func header(filename string) *fbx.Node {
	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(fbxVersion),
		bfbx73.Creator(creator),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
				bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)),
			),
		),
	)
}

// Y up, Z front, right handed, meters as scene units
func globalSettings() *fbx.Node {
	return bfbx73.GlobalSettings().AddNodes(
		bfbx73.Version(1000),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("UpAxis", "int", "Integer", "", int32(1)),
			bfbx73.P("UpAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("FrontAxis", "int", "Integer", "", int32(2)),
			bfbx73.P("FrontAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("CoordAxis", "int", "Integer", "", int32(0)),
			bfbx73.P("CoordAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
		),
	)
}

func count(n int32) *fbx.Node {
	node := bfbx73.Count(0)
	node.Properties[0] = n
	return node
}

// countDefinitions rebuilds Definitions with one ObjectType per object
// node name, plus GlobalSettings.
func (f *FBXBuilder) countDefinitions() {
	counts := map[string]int32{"GlobalSettings": 1}
	for _, object := range f.objects.Nodes {
		counts[object.Name]++
	}
	names := make([]string, 0, len(counts))
	total := int32(0)
	for name, n := range counts {
		names = append(names, name)
		total += n
	}
	sort.Strings(names)

	f.definitions.Nodes = nil
	f.definitions.AddNodes(bfbx73.Version(100), count(total))
	for _, name := range names {
		f.definitions.AddNode(bfbx73.ObjectType(name).AddNodes(count(counts[name])))
	}
}

func (f *FBXBuilder) Root() *fbx.Node {
	return &f.f.Root
}

// AddCache remembers the object id exported for key.
func (f *FBXBuilder) AddCache(key interface{}, id int64) {
	f.cache[key] = id
}

func (f *FBXBuilder) GetCached(key interface{}) (int64, bool) {
	id, ok := f.cache[key]
	return id, ok
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

// Write encodes the document through a temporary file, since fbx.Write
// needs a seekable writer.
func (f *FBXBuilder) Write(w io.Writer) error {
	f.countDefinitions()

	tempFile, err := ioutil.TempFile("", "fbxexport.*.fbx")
	if err != nil {
		return errors.Wrapf(err, "Unable to create temp file")
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := fbx.Write(tempFile, f.f); err != nil {
		return errors.Wrapf(err, "Unable to encode fbx")
	}
	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }
