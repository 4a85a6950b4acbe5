// Package scene defines the document a reference backend serves: artboards,
// view models with typed properties and named instances, and enums.
//
// Documents are written in YAML (or JSON) and decoded with Decode, or in CUE
// and compiled to JSON with CompileCUE first. Load picks the right path from
// the file extension.
//
// Names are compared after NFC normalization (see Key), so a name typed with
// combining marks finds the precomposed one.
package scene
