package handler

import (
	"mime"
	"path"
)

const defaultContentType = "application/octet-stream"

// 3D model and printing formats missing from most system MIME tables.
var modelTypes = map[string]string{
	".stl":   "model/stl",
	".obj":   "model/obj",
	".3mf":   "model/3mf",
	".gltf":  "model/gltf+json",
	".glb":   "model/gltf-binary",
	".ply":   "application/x-ply",
	".gcode": "text/x-gcode",
	".step":  "model/step",
	".stp":   "model/step",
}

func init() {
	for ext, typ := range modelTypes {
		if err := mime.AddExtensionType(ext, typ); err != nil {
			panic(err)
		}
	}
}

// contentType returns the MIME type for the file name, based on its extension.
func contentType(name string) string {
	if typ := mime.TypeByExtension(path.Ext(name)); typ != "" {
		return typ
	}
	return defaultContentType
}
