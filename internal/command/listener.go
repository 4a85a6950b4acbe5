package command

// FileListener receives replies for file commands.
type FileListener interface {
	OnFileLoaded(file FileHandle, id RequestID)
	OnFileDeleted(file FileHandle, id RequestID)
	OnFileError(file FileHandle, id RequestID, message string)
	OnArtboardsListed(file FileHandle, id RequestID, names []string)
	OnViewModelsListed(file FileHandle, id RequestID, names []string)
	OnViewModelInstanceNamesListed(file FileHandle, id RequestID, viewModel string, names []string)
	// OnViewModelPropertiesListed carries loosely typed definitions with the
	// keys "type" (DataType raw value), "name" and optional "metaData".
	OnViewModelPropertiesListed(file FileHandle, id RequestID, viewModel string, properties []map[string]any)
	// OnViewModelEnumsListed carries loosely typed definitions with the keys
	// "name" and "values".
	OnViewModelEnumsListed(file FileHandle, id RequestID, enums []map[string]any)
}

// ArtboardListener receives replies for artboard commands.
type ArtboardListener interface {
	OnStateMachineNamesListed(artboard ArtboardHandle, id RequestID, names []string)
	OnDefaultViewModelInfoReceived(artboard ArtboardHandle, id RequestID, viewModel, instance string)
	OnArtboardError(artboard ArtboardHandle, id RequestID, message string)
	OnArtboardDeleted(artboard ArtboardHandle, id RequestID)
}

// ViewModelInstanceListener receives replies and subscription updates for one
// or more view model instances.
type ViewModelInstanceListener interface {
	OnViewModelDataReceived(instance ViewModelInstanceHandle, id RequestID, data ViewModelData)
	OnViewModelInstanceNameReceived(instance ViewModelInstanceHandle, id RequestID, name string)
	OnViewModelListSizeReceived(instance ViewModelInstanceHandle, id RequestID, path string, size int)
}

// ImageListener receives replies for image decoding.
type ImageListener interface {
	OnImageDecoded(image ImageHandle, id RequestID)
	OnImageError(image ImageHandle, id RequestID, message string)
	OnImageDeleted(image ImageHandle, id RequestID)
}

// FontListener receives replies for font decoding.
type FontListener interface {
	OnFontDecoded(font FontHandle, id RequestID)
	OnFontError(font FontHandle, id RequestID, message string)
	OnFontDeleted(font FontHandle, id RequestID)
}

// AudioListener receives replies for audio decoding.
type AudioListener interface {
	OnAudioDecoded(audio AudioHandle, id RequestID)
	OnAudioError(audio AudioHandle, id RequestID, message string)
	OnAudioDeleted(audio AudioHandle, id RequestID)
}
