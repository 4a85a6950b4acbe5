package command

import "time"

// FileCommands loads files and lists their contents.
type FileCommands interface {
	LoadFile(data []byte, listener FileListener, id RequestID)
	DeleteFile(file FileHandle, id RequestID)
	DeleteFileListener(file FileHandle)
	RequestArtboardNames(file FileHandle, id RequestID)
	RequestViewModelNames(file FileHandle, id RequestID)
	RequestViewModelEnums(file FileHandle, id RequestID)
	RequestViewModelInstanceNames(file FileHandle, viewModel string, id RequestID)
	RequestViewModelPropertyDefinitions(file FileHandle, viewModel string, id RequestID)
}

// ArtboardCommands creates and queries artboards.
type ArtboardCommands interface {
	CreateDefaultArtboard(file FileHandle, listener ArtboardListener, id RequestID) ArtboardHandle
	CreateArtboardNamed(name string, file FileHandle, listener ArtboardListener, id RequestID) ArtboardHandle
	RequestStateMachineNames(artboard ArtboardHandle, id RequestID)
	RequestDefaultViewModelInfo(artboard ArtboardHandle, file FileHandle, id RequestID)
	SetArtboardSize(artboard ArtboardHandle, width, height, scale float32, id RequestID)
	ResetArtboardSize(artboard ArtboardHandle, id RequestID)
	DeleteArtboard(artboard ArtboardHandle, id RequestID)
	DeleteArtboardListener(artboard ArtboardHandle)
}

// StateMachineCommands creates and drives state machines. None of them reply.
type StateMachineCommands interface {
	CreateDefaultStateMachine(artboard ArtboardHandle, id RequestID) StateMachineHandle
	CreateStateMachineNamed(name string, artboard ArtboardHandle, id RequestID) StateMachineHandle
	AdvanceStateMachine(stateMachine StateMachineHandle, elapsed time.Duration, id RequestID)
	BindViewModelInstance(stateMachine StateMachineHandle, instance ViewModelInstanceHandle, id RequestID)
	DeleteStateMachine(stateMachine StateMachineHandle, id RequestID)
}

// ViewModelInstanceCommands creates view model instances and reads, writes and
// observes their properties.
type ViewModelInstanceCommands interface {
	CreateBlankViewModelInstance(artboard ArtboardHandle, file FileHandle, listener ViewModelInstanceListener, id RequestID) ViewModelInstanceHandle
	CreateBlankViewModelInstanceNamed(viewModel string, file FileHandle, listener ViewModelInstanceListener, id RequestID) ViewModelInstanceHandle
	CreateDefaultViewModelInstance(artboard ArtboardHandle, file FileHandle, listener ViewModelInstanceListener, id RequestID) ViewModelInstanceHandle
	CreateDefaultViewModelInstanceNamed(viewModel string, file FileHandle, listener ViewModelInstanceListener, id RequestID) ViewModelInstanceHandle
	CreateViewModelInstanceNamedForArtboard(instance string, artboard ArtboardHandle, file FileHandle, listener ViewModelInstanceListener, id RequestID) ViewModelInstanceHandle
	CreateViewModelInstanceNamed(instance, viewModel string, file FileHandle, listener ViewModelInstanceListener, id RequestID) ViewModelInstanceHandle
	ReferenceNestedViewModelInstance(instance ViewModelInstanceHandle, path string, listener ViewModelInstanceListener, id RequestID) ViewModelInstanceHandle
	ReferenceListViewModelInstance(instance ViewModelInstanceHandle, path string, index int32, listener ViewModelInstanceListener, id RequestID) ViewModelInstanceHandle

	RequestViewModelInstanceName(instance ViewModelInstanceHandle, id RequestID)
	RequestViewModelInstanceString(instance ViewModelInstanceHandle, path string, id RequestID)
	RequestViewModelInstanceNumber(instance ViewModelInstanceHandle, path string, id RequestID)
	RequestViewModelInstanceBool(instance ViewModelInstanceHandle, path string, id RequestID)
	RequestViewModelInstanceColor(instance ViewModelInstanceHandle, path string, id RequestID)
	RequestViewModelInstanceEnum(instance ViewModelInstanceHandle, path string, id RequestID)
	RequestViewModelInstanceListSize(instance ViewModelInstanceHandle, path string, id RequestID)

	SetViewModelInstanceString(instance ViewModelInstanceHandle, path string, value string, id RequestID)
	SetViewModelInstanceNumber(instance ViewModelInstanceHandle, path string, value float32, id RequestID)
	SetViewModelInstanceBool(instance ViewModelInstanceHandle, path string, value bool, id RequestID)
	SetViewModelInstanceColor(instance ViewModelInstanceHandle, path string, argb uint32, id RequestID)
	SetViewModelInstanceEnum(instance ViewModelInstanceHandle, path string, value string, id RequestID)
	SetViewModelInstanceImage(instance ViewModelInstanceHandle, path string, image ImageHandle, id RequestID)
	SetViewModelInstanceArtboard(instance ViewModelInstanceHandle, path string, artboard ArtboardHandle, id RequestID)
	SetViewModelInstanceNestedViewModel(instance ViewModelInstanceHandle, path string, value ViewModelInstanceHandle, id RequestID)
	FireViewModelTrigger(instance ViewModelInstanceHandle, path string, id RequestID)

	// Subscribe starts pushing OnViewModelDataReceived updates tagged with id.
	// Unsubscribe must be called with the same id.
	Subscribe(instance ViewModelInstanceHandle, path string, dataType DataType, id RequestID)
	Unsubscribe(instance ViewModelInstanceHandle, path string, dataType DataType, id RequestID)

	AppendViewModelInstanceListViewModel(instance ViewModelInstanceHandle, path string, value ViewModelInstanceHandle, id RequestID)
	InsertViewModelInstanceListViewModel(instance ViewModelInstanceHandle, path string, value ViewModelInstanceHandle, index int32, id RequestID)
	RemoveViewModelInstanceListViewModelAtIndex(instance ViewModelInstanceHandle, path string, index int32, value ViewModelInstanceHandle, id RequestID)
	RemoveViewModelInstanceListViewModelByValue(instance ViewModelInstanceHandle, path string, value ViewModelInstanceHandle, id RequestID)
	SwapViewModelInstanceListValues(instance ViewModelInstanceHandle, path string, atIndex, withIndex int32, id RequestID)

	DeleteViewModelInstance(instance ViewModelInstanceHandle, id RequestID)
	DeleteViewModelInstanceListener(instance ViewModelInstanceHandle)
}

// AssetCommands decodes and releases out-of-band assets.
type AssetCommands interface {
	DecodeImage(data []byte, listener ImageListener, id RequestID)
	DeleteImage(image ImageHandle, id RequestID)
	DeleteImageListener(image ImageHandle)
	DecodeFont(data []byte, listener FontListener, id RequestID)
	DeleteFont(font FontHandle, id RequestID)
	DeleteFontListener(font FontHandle)
	DecodeAudio(data []byte, listener AudioListener, id RequestID)
	DeleteAudio(audio AudioHandle, id RequestID)
	DeleteAudioListener(audio AudioHandle)
}

// WorkerCommands controls the backend lifecycle and its global asset table.
type WorkerCommands interface {
	Start()
	Stop()
	AddGlobalImageAsset(name string, image ImageHandle, id RequestID)
	RemoveGlobalImageAsset(name string, id RequestID)
	AddGlobalFontAsset(name string, font FontHandle, id RequestID)
	RemoveGlobalFontAsset(name string, id RequestID)
	AddGlobalAudioAsset(name string, audio AudioHandle, id RequestID)
	RemoveGlobalAudioAsset(name string, id RequestID)
}

// IDSource hands out request IDs.
type IDSource interface {
	NextRequestID() RequestID
}

// Queue is the complete command surface of a backend.
type Queue interface {
	IDSource
	FileCommands
	ArtboardCommands
	StateMachineCommands
	ViewModelInstanceCommands
	AssetCommands
	WorkerCommands
}
