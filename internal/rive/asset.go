package rive

import (
	"context"
	"fmt"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/correlator"
)

// assetService is the decode/delete correlation shared by images, fonts and
// audio.
type assetService[H ~uint64] struct {
	d             deps
	kind          string
	continuations *correlator.Continuations
}

func newAssetService[H ~uint64](d deps, kind string) assetService[H] {
	return assetService[H]{d: d, kind: kind, continuations: d.continuations()}
}

func (s *assetService[H]) decode(ctx context.Context, issue func(id command.RequestID)) (H, error) {
	return await[H](ctx, s.d, s.continuations, "Decode"+s.kind, issue)
}

// remove deletes the asset and, once the backend confirms, its listener.
func (s *assetService[H]) remove(h H, issue func(id command.RequestID), removeListener func(H)) {
	s.d.post(func() {
		id := s.d.nextID("Delete" + s.kind)
		s.continuations.Register(id, correlator.Callback(func(deleted H, err error) {
			if err != nil {
				s.d.logger.Debug("asset delete failed", "kind", s.kind, "error", err)
				return
			}
			removeListener(deleted)
		}))
		issue(id)
	})
}

func (s *assetService[H]) decoded(h H, id command.RequestID) {
	s.d.resolve(s.continuations, id, h, nil)
}

func (s *assetService[H]) failed(id command.RequestID, message string) {
	s.d.resolve(s.continuations, id, nil, &Error{
		Code:    ErrCodeFailedDecoding,
		Message: fmt.Sprintf("failed decoding %s: %s", s.kind, message),
	})
}

func (s *assetService[H]) deleted(h H, id command.RequestID) {
	s.d.resolve(s.continuations, id, h, nil)
}

// ImageService decodes and deletes images.
type ImageService struct {
	assetService[command.ImageHandle]
}

func newImageService(d deps) *ImageService {
	return &ImageService{newAssetService[command.ImageHandle](d, "image")}
}

// Decode decodes image bytes and waits for the handle.
func (s *ImageService) Decode(ctx context.Context, data []byte) (command.ImageHandle, error) {
	return s.decode(ctx, func(id command.RequestID) { s.d.queue.DecodeImage(data, s, id) })
}

// Delete releases an image, then its listener.
func (s *ImageService) Delete(h command.ImageHandle) {
	s.remove(h, func(id command.RequestID) { s.d.queue.DeleteImage(h, id) }, s.d.queue.DeleteImageListener)
}

func (s *ImageService) OnImageDecoded(h command.ImageHandle, id command.RequestID) { s.decoded(h, id) }
func (s *ImageService) OnImageError(_ command.ImageHandle, id command.RequestID, message string) {
	s.failed(id, message)
}
func (s *ImageService) OnImageDeleted(h command.ImageHandle, id command.RequestID) { s.deleted(h, id) }

// FontService decodes and deletes fonts.
type FontService struct {
	assetService[command.FontHandle]
}

func newFontService(d deps) *FontService {
	return &FontService{newAssetService[command.FontHandle](d, "font")}
}

// Decode decodes font bytes and waits for the handle.
func (s *FontService) Decode(ctx context.Context, data []byte) (command.FontHandle, error) {
	return s.decode(ctx, func(id command.RequestID) { s.d.queue.DecodeFont(data, s, id) })
}

// Delete releases a font, then its listener.
func (s *FontService) Delete(h command.FontHandle) {
	s.remove(h, func(id command.RequestID) { s.d.queue.DeleteFont(h, id) }, s.d.queue.DeleteFontListener)
}

func (s *FontService) OnFontDecoded(h command.FontHandle, id command.RequestID) { s.decoded(h, id) }
func (s *FontService) OnFontError(_ command.FontHandle, id command.RequestID, message string) {
	s.failed(id, message)
}
func (s *FontService) OnFontDeleted(h command.FontHandle, id command.RequestID) { s.deleted(h, id) }

// AudioService decodes and deletes audio clips.
type AudioService struct {
	assetService[command.AudioHandle]
}

func newAudioService(d deps) *AudioService {
	return &AudioService{newAssetService[command.AudioHandle](d, "audio")}
}

// Decode decodes audio bytes and waits for the handle.
func (s *AudioService) Decode(ctx context.Context, data []byte) (command.AudioHandle, error) {
	return s.decode(ctx, func(id command.RequestID) { s.d.queue.DecodeAudio(data, s, id) })
}

// Delete releases an audio clip, then its listener.
func (s *AudioService) Delete(h command.AudioHandle) {
	s.remove(h, func(id command.RequestID) { s.d.queue.DeleteAudio(h, id) }, s.d.queue.DeleteAudioListener)
}

func (s *AudioService) OnAudioDecoded(h command.AudioHandle, id command.RequestID) { s.decoded(h, id) }
func (s *AudioService) OnAudioError(_ command.AudioHandle, id command.RequestID, message string) {
	s.failed(id, message)
}
func (s *AudioService) OnAudioDeleted(h command.AudioHandle, id command.RequestID) { s.deleted(h, id) }

// Image is a decoded image.
type Image struct {
	handle command.ImageHandle
	svc    *ImageService
	life   lifecycle
}

func newImage(h command.ImageHandle, svc *ImageService) *Image {
	img := &Image{handle: h, svc: svc}
	arm(img, &img.life, func() { svc.Delete(h) })
	return img
}

// Handle returns the backend handle.
func (i *Image) Handle() command.ImageHandle { return i.handle }

// Equal reports whether both images name the same backend object.
func (i *Image) Equal(o *Image) bool { return o != nil && i.handle == o.handle }

// Close releases the image.
func (i *Image) Close() { i.life.close(func() { i.svc.Delete(i.handle) }) }

// Font is a decoded font.
type Font struct {
	handle command.FontHandle
	svc    *FontService
	life   lifecycle
}

func newFont(h command.FontHandle, svc *FontService) *Font {
	f := &Font{handle: h, svc: svc}
	arm(f, &f.life, func() { svc.Delete(h) })
	return f
}

// Handle returns the backend handle.
func (f *Font) Handle() command.FontHandle { return f.handle }

// Equal reports whether both fonts name the same backend object.
func (f *Font) Equal(o *Font) bool { return o != nil && f.handle == o.handle }

// Close releases the font.
func (f *Font) Close() { f.life.close(func() { f.svc.Delete(f.handle) }) }

// Audio is a decoded audio clip.
type Audio struct {
	handle command.AudioHandle
	svc    *AudioService
	life   lifecycle
}

func newAudio(h command.AudioHandle, svc *AudioService) *Audio {
	a := &Audio{handle: h, svc: svc}
	arm(a, &a.life, func() { svc.Delete(h) })
	return a
}

// Handle returns the backend handle.
func (a *Audio) Handle() command.AudioHandle { return a.handle }

// Equal reports whether both clips name the same backend object.
func (a *Audio) Equal(o *Audio) bool { return o != nil && a.handle == o.handle }

// Close releases the audio clip.
func (a *Audio) Close() { a.life.close(func() { a.svc.Delete(a.handle) }) }
