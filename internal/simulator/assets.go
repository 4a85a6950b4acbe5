package simulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/font/sfnt"
	_ "golang.org/x/image/webp"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/store"
)

type asset[L any] struct {
	listener L
	detail   string
}

// assetKind wires one asset table to its listener callbacks.
type assetKind[H ~uint64, L any] struct {
	name    string
	table   map[H]*asset[L]
	check   func([]byte) (string, error)
	decoded func(L, H, command.RequestID)
	failed  func(L, H, command.RequestID, string)
	deleted func(L, H, command.RequestID)
}

func decodeAsset[H ~uint64, L any](b *Backend, k assetKind[H, L], data []byte, l L, id command.RequestID) {
	b.apply(store.Entry{Name: "Decode" + k.name, RequestID: uint64(id), Detail: fmt.Sprintf("bytes=%d", len(data))}, func() {
		detail, err := k.check(data)
		if err != nil {
			b.reply(store.Entry{Name: "On" + k.name + "Error", RequestID: uint64(id), Detail: err.Error()})
			k.failed(l, 0, id, err.Error())
			return
		}
		h := H(b.nextHandle())
		k.table[h] = &asset[L]{listener: l, detail: detail}
		b.reply(store.Entry{Name: "On" + k.name + "Decoded", RequestID: uint64(id), Handle: uint64(h), Detail: detail})
		k.decoded(l, h, id)
	})
}

func deleteAsset[H ~uint64, L any](b *Backend, k assetKind[H, L], h H, id command.RequestID) {
	b.apply(store.Entry{Name: "Delete" + k.name, RequestID: uint64(id), Handle: uint64(h)}, func() {
		a, ok := k.table[h]
		if !ok {
			b.logger.Debug("unknown asset", "kind", k.name, "handle", uint64(h))
			return
		}
		b.dropGlobals(uint64(h))
		b.reply(store.Entry{Name: "On" + k.name + "Deleted", RequestID: uint64(id), Handle: uint64(h)})
		k.deleted(a.listener, h, id)
	})
}

func deleteAssetListener[H ~uint64, L any](b *Backend, k assetKind[H, L], h H) {
	b.apply(store.Entry{Name: "Delete" + k.name + "Listener", Handle: uint64(h)}, func() {
		delete(k.table, h)
	})
}

func (b *Backend) imageKind() assetKind[command.ImageHandle, command.ImageListener] {
	return assetKind[command.ImageHandle, command.ImageListener]{
		name:    "Image",
		table:   b.images,
		check:   checkImage,
		decoded: command.ImageListener.OnImageDecoded,
		failed:  command.ImageListener.OnImageError,
		deleted: command.ImageListener.OnImageDeleted,
	}
}

func (b *Backend) fontKind() assetKind[command.FontHandle, command.FontListener] {
	return assetKind[command.FontHandle, command.FontListener]{
		name:    "Font",
		table:   b.fonts,
		check:   checkFont,
		decoded: command.FontListener.OnFontDecoded,
		failed:  command.FontListener.OnFontError,
		deleted: command.FontListener.OnFontDeleted,
	}
}

func (b *Backend) audioKind() assetKind[command.AudioHandle, command.AudioListener] {
	return assetKind[command.AudioHandle, command.AudioListener]{
		name:    "Audio",
		table:   b.audios,
		check:   checkAudio,
		decoded: command.AudioListener.OnAudioDecoded,
		failed:  command.AudioListener.OnAudioError,
		deleted: command.AudioListener.OnAudioDeleted,
	}
}

func (b *Backend) DecodeImage(data []byte, l command.ImageListener, id command.RequestID) {
	decodeAsset(b, b.imageKind(), data, l, id)
}

func (b *Backend) DeleteImage(h command.ImageHandle, id command.RequestID) {
	deleteAsset(b, b.imageKind(), h, id)
}

func (b *Backend) DeleteImageListener(h command.ImageHandle) {
	deleteAssetListener(b, b.imageKind(), h)
}

func (b *Backend) DecodeFont(data []byte, l command.FontListener, id command.RequestID) {
	decodeAsset(b, b.fontKind(), data, l, id)
}

func (b *Backend) DeleteFont(h command.FontHandle, id command.RequestID) {
	deleteAsset(b, b.fontKind(), h, id)
}

func (b *Backend) DeleteFontListener(h command.FontHandle) {
	deleteAssetListener(b, b.fontKind(), h)
}

func (b *Backend) DecodeAudio(data []byte, l command.AudioListener, id command.RequestID) {
	decodeAsset(b, b.audioKind(), data, l, id)
}

func (b *Backend) DeleteAudio(h command.AudioHandle, id command.RequestID) {
	deleteAsset(b, b.audioKind(), h, id)
}

func (b *Backend) DeleteAudioListener(h command.AudioHandle) {
	deleteAssetListener(b, b.audioKind(), h)
}

// checkImage reads just the header; the pixels are never needed.
func checkImage(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %dx%d", format, cfg.Width, cfg.Height), nil
}

func checkFont(data []byte) (string, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", err
	}
	var buf sfnt.Buffer
	name, err := f.Name(&buf, sfnt.NameIDFull)
	if err != nil {
		return fmt.Sprintf("glyphs=%d", f.NumGlyphs()), nil
	}
	return name, nil
}

var errUnknownAudio = errors.New("unknown audio format")

// checkAudio recognizes containers by their magic bytes.
func checkAudio(data []byte) (string, error) {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return "wav", nil
	case bytes.HasPrefix(data, []byte("OggS")):
		return "ogg", nil
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "flac", nil
	case bytes.HasPrefix(data, []byte("ID3")):
		return "mp3", nil
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "mp3", nil
	}
	return "", errUnknownAudio
}

func globalKey(kind, name string) string { return kind + ":" + name }

func (b *Backend) AddGlobalImageAsset(name string, h command.ImageHandle, id command.RequestID) {
	b.addGlobal("Image", name, uint64(h), id)
}

func (b *Backend) RemoveGlobalImageAsset(name string, id command.RequestID) {
	b.removeGlobal("Image", name, id)
}

func (b *Backend) AddGlobalFontAsset(name string, h command.FontHandle, id command.RequestID) {
	b.addGlobal("Font", name, uint64(h), id)
}

func (b *Backend) RemoveGlobalFontAsset(name string, id command.RequestID) {
	b.removeGlobal("Font", name, id)
}

func (b *Backend) AddGlobalAudioAsset(name string, h command.AudioHandle, id command.RequestID) {
	b.addGlobal("Audio", name, uint64(h), id)
}

func (b *Backend) RemoveGlobalAudioAsset(name string, id command.RequestID) {
	b.removeGlobal("Audio", name, id)
}

// addGlobal registers a decoded asset by name. Unknown handles are ignored.
func (b *Backend) addGlobal(kind, name string, h uint64, id command.RequestID) {
	b.apply(store.Entry{Name: "AddGlobal" + kind + "Asset", RequestID: uint64(id), Handle: h, Detail: name}, func() {
		if !b.assetExists(kind, h) {
			b.logger.Debug("global asset not registered: unknown handle", "kind", kind, "name", name, "handle", h)
			return
		}
		b.globals[globalKey(kind, name)] = h
	})
}

func (b *Backend) removeGlobal(kind, name string, id command.RequestID) {
	b.apply(store.Entry{Name: "RemoveGlobal" + kind + "Asset", RequestID: uint64(id), Detail: name}, func() {
		delete(b.globals, globalKey(kind, name))
	})
}

func (b *Backend) assetExists(kind string, h uint64) bool {
	switch kind {
	case "Image":
		_, ok := b.images[command.ImageHandle(h)]
		return ok
	case "Font":
		_, ok := b.fonts[command.FontHandle(h)]
		return ok
	case "Audio":
		_, ok := b.audios[command.AudioHandle(h)]
		return ok
	}
	return false
}

func (b *Backend) dropGlobals(h uint64) {
	for k, v := range b.globals {
		if v == h {
			delete(b.globals, k)
		}
	}
}

// Global returns the handle registered under a global asset name. kind is
// "Image", "Font" or "Audio".
func (b *Backend) Global(ctx context.Context, kind, name string) (uint64, bool, error) {
	var (
		h  uint64
		ok bool
	)
	err := b.exec.Do(ctx, func() {
		h, ok = b.globals[globalKey(kind, name)]
	})
	return h, ok, err
}
