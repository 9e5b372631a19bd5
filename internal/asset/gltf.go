package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/quaternion"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	dvec4 "github.com/flywave/go3d/float64/vec4"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"model-viewer/internal/framing"
)

// maxNodeDepth bounds the node walk so a cyclic hierarchy cannot recurse forever.
const maxNodeDepth = 64

var (
	emptyMatrix    = [16]float64{}
	identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
)

// modelInfo is what the viewer needs to know about a parsed model.
type modelInfo struct {
	bounds     framing.BoundingBox
	meshes     int
	primitives int
}

// parseModel decodes glTF (JSON or binary) and measures the default scene. Buffers must be
// embedded: a .glb or data URIs.
func parseModel(ctx context.Context, data []byte) (modelInfo, error) {
	if len(data) == 0 {
		return modelInfo{}, errors.New("empty file")
	}
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return modelInfo{}, err
	}
	return measure(ctx, doc)
}

// measure returns the world-space bounds of every mesh reachable from the default scene. Like
// an object-level bounding box in a scene graph, each primitive's local box is transformed
// corner by corner, so rotated parts yield a slightly loose but conservative box. Nodes must
// form a forest: a node reached twice, through a shared child or a cycle, is an error.
func measure(ctx context.Context, doc *gltf.Document) (modelInfo, error) {
	info := modelInfo{bounds: framing.NewBoundingBox()}
	seen := make(map[int]bool)
	visited := make(map[int]bool)

	var walk func(idx int, parent *dmat.T, depth int) error
	walk = func(idx int, parent *dmat.T, depth int) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node %d out of range", idx)
		}
		if depth > maxNodeDepth {
			return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
		}
		if visited[idx] {
			return fmt.Errorf("node %d has more than one parent", idx)
		}
		visited[idx] = true
		if err := ctx.Err(); err != nil {
			return err
		}
		nd := doc.Nodes[idx]
		local := nodeMatrix(nd)
		world := dmat.Ident
		world.AssignMul(parent, &local)

		if nd.Mesh != nil {
			if err := info.addMesh(doc, *nd.Mesh, &world, seen); err != nil {
				return err
			}
		}
		for _, c := range nd.Children {
			if err := walk(c, &world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	root := dmat.Ident
	for _, idx := range sceneRoots(doc) {
		if err := walk(idx, &root, 0); err != nil {
			return modelInfo{}, err
		}
	}
	return info, nil
}

func (info *modelInfo) addMesh(doc *gltf.Document, meshIdx int, world *dmat.T, seen map[int]bool) error {
	if meshIdx < 0 || meshIdx >= len(doc.Meshes) {
		return fmt.Errorf("mesh %d out of range", meshIdx)
	}
	if !seen[meshIdx] {
		seen[meshIdx] = true
		info.meshes++
	}
	for _, prim := range doc.Meshes[meshIdx].Primitives {
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		if posIdx < 0 || posIdx >= len(doc.Accessors) {
			return fmt.Errorf("accessor %d out of range", posIdx)
		}
		local, err := accessorBox(doc, doc.Accessors[posIdx])
		if err != nil {
			return err
		}
		info.primitives++
		if local.Empty() {
			continue
		}
		for _, c := range local.Corners() {
			p := dvec3.T{float64(c.X), float64(c.Y), float64(c.Z)}
			w := world.MulVec3(&p)
			info.bounds.Extend(framing.NewVec3(float32(w[0]), float32(w[1]), float32(w[2])))
		}
	}
	return nil
}

// accessorBox returns the local bounds of a POSITION accessor, from its min/max when the
// exporter filled them in and from the vertex data otherwise.
func accessorBox(doc *gltf.Document, acr *gltf.Accessor) (framing.BoundingBox, error) {
	box := framing.NewBoundingBox()
	if len(acr.Min) >= 3 && len(acr.Max) >= 3 {
		box.Extend(framing.NewVec3(float32(acr.Min[0]), float32(acr.Min[1]), float32(acr.Min[2])))
		box.Extend(framing.NewVec3(float32(acr.Max[0]), float32(acr.Max[1]), float32(acr.Max[2])))
		return box, nil
	}
	positions, err := modeler.ReadPosition(doc, acr, nil)
	if err != nil {
		return box, err
	}
	for _, p := range positions {
		box.Extend(framing.NewVec3(p[0], p[1], p[2]))
	}
	return box, nil
}

// sceneRoots returns the root nodes of the default scene, the first scene when none is
// marked default, or every parentless node when the file has no scenes.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		return doc.Scenes[s].Nodes
	}
	isChild := make(map[int]bool)
	for _, nd := range doc.Nodes {
		for _, c := range nd.Children {
			isChild[c] = true
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeMatrix returns a node's local transform: its matrix when one is set, otherwise
// translation * rotation * scale.
func nodeMatrix(nd *gltf.Node) dmat.T {
	if nd.Matrix != emptyMatrix && nd.Matrix != identityMatrix {
		return arrayToMat(nd.Matrix)
	}
	t := dvec3.T(nd.Translation)
	s := dvec3.T(nd.Scale)
	r := quaternion.T(nd.Rotation)
	if r == (quaternion.T{}) {
		r = quaternion.Ident
	}
	return *dmat.Compose(&t, &r, &s)
}

// arrayToMat converts a column-major glTF matrix.
func arrayToMat(m [16]float64) dmat.T {
	return dmat.T{
		dvec4.T{m[0], m[1], m[2], m[3]},
		dvec4.T{m[4], m[5], m[6], m[7]},
		dvec4.T{m[8], m[9], m[10], m[11]},
		dvec4.T{m[12], m[13], m[14], m[15]},
	}
}
