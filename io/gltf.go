// Package io ingests mesh data into bound volumes. Only bounds are ever
// read out of an asset; geometry stays with the renderer that owns it.
package io

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"spatial-index/bounds"
)

var ErrNoPositions = errors.New("primitive has no POSITION attribute")

// LoadDocumentBounds opens a glTF file and returns its DocumentBounds.
func LoadDocumentBounds(path string) (bounds.Aabb, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return bounds.Aabb{}, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return DocumentBounds(doc)
}

// DocumentBounds returns the union of NodeBounds over every node that has
// a mesh. Each node is transformed by its own TRS only; parent node
// transforms are not composed in, so nested nodes are not placed in world
// space.
func DocumentBounds(doc *gltf.Document) (bounds.Aabb, error) {
	var out bounds.Aabb
	seeded := false
	for i := range doc.Nodes {
		b, err := NodeBounds(doc, doc.Nodes[i])
		if err != nil {
			if errors.Is(err, ErrNoPositions) {
				continue
			}
			return bounds.Aabb{}, fmt.Errorf("node %d: %w", i, err)
		}
		if !seeded {
			out = b
			seeded = true
		} else {
			out = out.Union(b)
		}
	}
	if !seeded {
		return bounds.Aabb{}, ErrNoPositions
	}
	return out, nil
}

// NodeBounds returns the bounds of a document node's mesh, transformed by
// the node's TRS matrix. Nodes without a mesh yield ErrNoPositions.
func NodeBounds(doc *gltf.Document, node *gltf.Node) (bounds.Aabb, error) {
	if node.Mesh == nil || *node.Mesh >= len(doc.Meshes) {
		return bounds.Aabb{}, ErrNoPositions
	}
	b, err := MeshBounds(doc, doc.Meshes[*node.Mesh])
	if err != nil {
		return bounds.Aabb{}, err
	}
	return b.Transform(nodeMatrix(node)), nil
}

// MeshBounds returns the union of the mesh's primitive bounds.
func MeshBounds(doc *gltf.Document, mesh *gltf.Mesh) (bounds.Aabb, error) {
	var out bounds.Aabb
	seeded := false
	for pi, prim := range mesh.Primitives {
		b, err := PrimitiveBounds(doc, prim)
		if err != nil {
			if errors.Is(err, ErrNoPositions) {
				continue
			}
			return bounds.Aabb{}, fmt.Errorf("prim %d: %w", pi, err)
		}
		if !seeded {
			out = b
			seeded = true
		} else {
			out = out.Union(b)
		}
	}
	if !seeded {
		return bounds.Aabb{}, ErrNoPositions
	}
	return out, nil
}

// PrimitiveBounds fits a box around one primitive's POSITION accessor.
func PrimitiveBounds(doc *gltf.Document, prim *gltf.Primitive) (bounds.Aabb, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return bounds.Aabb{}, ErrNoPositions
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return bounds.Aabb{}, fmt.Errorf("positions: %w", err)
	}
	if len(positions) == 0 {
		return bounds.Aabb{}, ErrNoPositions
	}
	b := bounds.NewAabb(
		mgl64.Vec3{float64(positions[0][0]), float64(positions[0][1]), float64(positions[0][2])},
		mgl64.Vec3{float64(positions[0][0]), float64(positions[0][1]), float64(positions[0][2])},
	)
	for _, p := range positions[1:] {
		b.EnclosePoint(float64(p[0]), float64(p[1]), float64(p[2]))
	}
	return b, nil
}

// nodeMatrix composes the node's TRS into an affine matrix.
func nodeMatrix(node *gltf.Node) mgl64.Mat4 {
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault() // [x, y, z, w]
	s := node.ScaleOrDefault()

	q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}
