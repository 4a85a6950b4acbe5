package simulator_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/rive"
	"github.com/roach88/rivecq/internal/simulator"
	"github.com/roach88/rivecq/internal/store"
	"github.com/roach88/rivecq/internal/testutil"
)

var (
	name      = rive.StringProperty("name")
	hp        = rive.NumberProperty("hp")
	alive     = rive.BoolProperty("alive")
	tint      = rive.ColorProperty("tint")
	mood      = rive.EnumProperty("mood")
	jump      = rive.TriggerProperty{Path: "jump"}
	weapon    = rive.InstanceProperty{Path: "weapon"}
	inventory = rive.ListProperty{Path: "inventory"}
	label     = rive.StringProperty("label")
)

func openHero(t *testing.T) (*testutil.World, *rive.File) {
	t.Helper()
	w := testutil.NewWorld(t)
	return w, w.Open(t, "hero.yaml")
}

func ada(t *testing.T, f *rive.File) *rive.ViewModelInstance {
	t.Helper()
	vmi, err := f.CreateViewModelInstance(testutil.Context(t), rive.Named("Ada", rive.ViewModelNamed("Hero")))
	require.NoError(t, err)
	t.Cleanup(vmi.Close)
	return vmi
}

func TestSimulator_Listings(t *testing.T) {
	_, f := openHero(t)
	ctx := testutil.Context(t)

	artboards, err := f.ArtboardNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Main", "Menu"}, artboards)

	vms, err := f.ViewModelNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hero", "Weapon", "Gem", "Item"}, vms)

	instances, err := f.InstanceNames(ctx, "Hero")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Grace"}, instances)

	none, err := f.InstanceNames(ctx, "Nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	props, err := f.Properties(ctx, "Hero")
	require.NoError(t, err)
	require.Len(t, props, 8)
	assert.Equal(t, rive.ViewModelProperty{Type: command.DataTypeString, Name: "name"}, props[0])
	assert.Equal(t, command.DataTypeList, props[7].Type)

	enums, err := f.Enums(ctx)
	require.NoError(t, err)
	assert.Equal(t, []rive.ViewModelEnum{{Name: "Mood", Values: []string{"happy", "sad", "angry"}}}, enums)
}

func TestSimulator_InvalidFile(t *testing.T) {
	w := testutil.NewWorld(t)
	ctx := testutil.Context(t)

	_, err := rive.OpenFile(ctx, w.Worker, rive.Data("artboards: [unterminated"))
	assert.True(t, rive.HasCode(err, rive.ErrCodeInvalidFile), "got %v", err)

	bad := "viewModels:\n  - name: A\n    properties:\n      - {name: x, type: bogus}\n"
	_, err = rive.OpenFile(ctx, w.Worker, rive.Data(bad))
	assert.True(t, rive.HasCode(err, rive.ErrCodeInvalidFile), "got %v", err)
}

func TestSimulator_ReadNamedInstance(t *testing.T) {
	_, f := openHero(t)
	vmi := ada(t, f)
	ctx := testutil.Context(t)

	n, err := vmi.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", n)

	s, err := rive.Get(ctx, vmi, name)
	require.NoError(t, err)
	assert.Equal(t, "Ada", s)

	v, err := rive.Get(ctx, vmi, hp)
	require.NoError(t, err)
	assert.Equal(t, float32(100), v)

	b, err := rive.Get(ctx, vmi, alive)
	require.NoError(t, err)
	assert.True(t, b)

	c, err := rive.Get(ctx, vmi, tint)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xFFFF3366), c.ARGB())

	m, err := rive.Get(ctx, vmi, mood)
	require.NoError(t, err)
	assert.Equal(t, "happy", m)
}

func TestSimulator_ReadErrors(t *testing.T) {
	_, f := openHero(t)
	vmi := ada(t, f)
	ctx := testutil.Context(t)

	_, err := rive.Get(ctx, vmi, rive.NumberProperty("name"))
	assert.True(t, rive.IsValueMismatch(err), "got %v", err)

	_, err = rive.Get(ctx, vmi, rive.StringProperty("nickname"))
	assert.True(t, rive.IsMissingData(err), "got %v", err)

	_, err = vmi.Size(ctx, rive.ListProperty{Path: "name"})
	assert.True(t, rive.IsMissingData(err), "got %v", err)
}

func TestSimulator_CopiesAreIndependent(t *testing.T) {
	_, f := openHero(t)
	a1, a2 := ada(t, f), ada(t, f)
	ctx := testutil.Context(t)

	rive.Set(a1, hp, 42)
	rive.Set(a1, mood, "angry")
	rive.Set(a1, mood, "bored")

	v, err := rive.Get(ctx, a1, hp)
	require.NoError(t, err)
	assert.Equal(t, float32(42), v)

	m, err := rive.Get(ctx, a1, mood)
	require.NoError(t, err)
	assert.Equal(t, "angry", m, "values outside the enum are dropped")

	v, err = rive.Get(ctx, a2, hp)
	require.NoError(t, err)
	assert.Equal(t, float32(100), v)
}

func TestSimulator_WatchYieldsChanges(t *testing.T) {
	w, f := openHero(t)
	vmi := ada(t, f)
	ctx := testutil.Context(t)

	stream := rive.Watch(vmi, hp)
	rive.Set(vmi, hp, 90)
	rive.Set(vmi, hp, 90)
	rive.Set(vmi, hp, 80)

	first, err := stream.Next(ctx)
	require.NoError(t, err)
	second, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float32{90, 80}, []float32{first, second})

	stream.Close()
	w.Sync(t)

	var subs, unsubs []store.Entry
	for _, e := range w.Journal.Entries() {
		switch e.Name {
		case "Subscribe":
			subs = append(subs, e)
		case "Unsubscribe":
			unsubs = append(unsubs, e)
		}
	}
	require.Len(t, subs, 1)
	require.Len(t, unsubs, 1)
	assert.Equal(t, subs[0].RequestID, unsubs[0].RequestID)
}

func TestSimulator_WatchUnknownPathEnds(t *testing.T) {
	_, f := openHero(t)
	vmi := ada(t, f)

	stream := rive.Watch(vmi, rive.NumberProperty("mana"))
	_, err := stream.Next(testutil.Context(t))
	assert.True(t, rive.IsMissingData(err), "got %v", err)
}

func TestSimulator_Triggers(t *testing.T) {
	_, f := openHero(t)
	vmi := ada(t, f)
	ctx := testutil.Context(t)

	stream := vmi.TriggerStream(jump)
	defer stream.Close()
	vmi.Fire(jump)
	vmi.Fire(jump)

	for range 2 {
		_, err := stream.Next(ctx)
		require.NoError(t, err)
	}
}

func TestSimulator_NestedInstancesShareState(t *testing.T) {
	_, f := openHero(t)
	vmi := ada(t, f)
	ctx := testutil.Context(t)

	wpn, err := vmi.Instance(ctx, weapon)
	require.NoError(t, err)

	l, err := rive.Get(ctx, wpn, label)
	require.NoError(t, err)
	assert.Equal(t, "Sword", l)

	rive.Set(vmi, rive.StringProperty("weapon/label"), "Axe")
	l, err = rive.Get(ctx, wpn, label)
	require.NoError(t, err)
	assert.Equal(t, "Axe", l)

	shine, err := rive.Get(ctx, vmi, rive.ColorProperty("weapon/gem/shine"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x80FFFFFF), shine.ARGB())

	other, err := f.CreateViewModelInstance(ctx, rive.Blank(rive.ViewModelNamed("Weapon")))
	require.NoError(t, err)
	defer other.Close()
	rive.Set(other, label, "Bow")
	vmi.SetInstance(weapon, other)

	l, err = rive.Get(ctx, vmi, rive.StringProperty("weapon/label"))
	require.NoError(t, err)
	assert.Equal(t, "Bow", l)
}

func TestSimulator_ListRoundTrip(t *testing.T) {
	_, f := openHero(t)
	vmi := ada(t, f)
	ctx := testutil.Context(t)

	size := func() int {
		t.Helper()
		n, err := vmi.Size(ctx, inventory)
		require.NoError(t, err)
		return n
	}
	labelAt := func(i int32) string {
		t.Helper()
		el, err := vmi.At(ctx, inventory, i)
		require.NoError(t, err)
		defer el.Close()
		s, err := rive.Get(ctx, el, label)
		require.NoError(t, err)
		return s
	}

	assert.Equal(t, 2, size())
	assert.Equal(t, "Potion", labelAt(0))

	item, err := f.CreateViewModelInstance(ctx, rive.Blank(rive.ViewModelNamed("Item")))
	require.NoError(t, err)
	defer item.Close()
	rive.Set(item, label, "Map")

	vmi.Append(inventory, item)
	assert.Equal(t, 3, size())
	assert.Equal(t, "Map", labelAt(2))

	vmi.Swap(inventory, 0, 2)
	assert.Equal(t, "Map", labelAt(0))
	assert.Equal(t, "Potion", labelAt(2))

	vmi.RemoveAt(inventory, 0)
	assert.Equal(t, 2, size())

	vmi.Insert(inventory, item, 1)
	assert.Equal(t, "Map", labelAt(1))

	vmi.Remove(inventory, item)
	assert.Equal(t, 2, size())
	assert.Equal(t, "Key", labelAt(0))
}

func TestSimulator_ArtboardDefaults(t *testing.T) {
	_, f := openHero(t)
	ctx := testutil.Context(t)

	main, err := f.CreateArtboard(ctx, "Main")
	require.NoError(t, err)
	defer main.Close()

	vm, inst, err := f.DefaultViewModelInfo(ctx, main)
	require.NoError(t, err)
	assert.Equal(t, "Hero", vm)
	assert.Equal(t, "Ada", inst)

	def, err := f.CreateViewModelInstance(ctx, rive.Default(rive.ArtboardDefault(main)))
	require.NoError(t, err)
	defer def.Close()
	n, err := def.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", n)

	blank, err := f.CreateViewModelInstance(ctx, rive.Blank(rive.ViewModelNamed("Hero")))
	require.NoError(t, err)
	defer blank.Close()
	v, err := rive.Get(ctx, blank, hp)
	require.NoError(t, err)
	assert.Zero(t, v)
	m, err := rive.Get(ctx, blank, mood)
	require.NoError(t, err)
	assert.Equal(t, "happy", m, "blank enums start at the first value")

	menu, err := f.CreateArtboard(ctx, "Menu")
	require.NoError(t, err)
	defer menu.Close()
	_, _, err = f.DefaultViewModelInfo(ctx, menu)
	assert.True(t, rive.HasCode(err, rive.ErrCodeArtboard), "got %v", err)
}

func TestSimulator_StateMachines(t *testing.T) {
	w, f := openHero(t)
	ctx := testutil.Context(t)

	ab, err := f.CreateArtboard(ctx, "")
	require.NoError(t, err)
	defer ab.Close()

	names, err := ab.StateMachineNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Idle", "Walk"}, names)

	_, err = ab.CreateStateMachine(ctx, "Run")
	assert.True(t, rive.HasCode(err, rive.ErrCodeInvalidStateMachine), "got %v", err)

	sm, err := ab.CreateStateMachine(ctx, "Walk")
	require.NoError(t, err)
	vmi := ada(t, f)
	sm.BindViewModelInstance(vmi)
	sm.Advance(16 * time.Millisecond)
	sm.Close()
	w.Sync(t)

	var seen []string
	for _, e := range w.Journal.Entries() {
		if strings.Contains(e.Name, "StateMachine") || e.Name == "BindViewModelInstance" {
			seen = append(seen, e.Name)
		}
	}
	assert.Equal(t, []string{
		"RequestStateMachineNames",
		"OnStateMachineNamesListed",
		"RequestStateMachineNames",
		"OnStateMachineNamesListed",
		"RequestStateMachineNames",
		"OnStateMachineNamesListed",
		"CreateStateMachineNamed",
		"BindViewModelInstance",
		"AdvanceStateMachine",
		"DeleteStateMachine",
	}, seen)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSimulator_Assets(t *testing.T) {
	w := testutil.NewWorld(t)
	ctx := testutil.Context(t)

	img, err := w.Worker.DecodeImage(ctx, pngBytes(t))
	require.NoError(t, err)

	_, err = w.Worker.DecodeImage(ctx, []byte("definitely not an image"))
	assert.True(t, rive.HasCode(err, rive.ErrCodeFailedDecoding), "got %v", err)

	font, err := w.Worker.DecodeFont(ctx, goregular.TTF)
	require.NoError(t, err)
	defer font.Close()

	wav := append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 32)...)
	audio, err := w.Worker.DecodeAudio(ctx, wav)
	require.NoError(t, err)
	defer audio.Close()

	_, err = w.Worker.DecodeAudio(ctx, []byte("MThd"))
	assert.True(t, rive.HasCode(err, rive.ErrCodeFailedDecoding), "got %v", err)

	w.Worker.AddGlobalImageAsset("hero", img)
	w.Sync(t)
	h, ok, err := w.Backend.Global(ctx, "Image", "hero")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(img.Handle()), h)

	w.Worker.RemoveGlobalImageAsset("hero")
	w.Sync(t)
	_, ok, err = w.Backend.Global(ctx, "Image", "hero")
	require.NoError(t, err)
	assert.False(t, ok)

	var decoded []string
	for _, e := range w.Journal.Entries() {
		if e.Name == "OnImageDecoded" {
			decoded = append(decoded, e.Detail)
		}
	}
	assert.Equal(t, []string{"png 2x3"}, decoded)
}

func TestSimulator_JournalTrace(t *testing.T) {
	w := testutil.NewWorld(t)
	data := testutil.LoadScene(t, "hero.yaml")
	_, err := rive.OpenFile(testutil.Context(t), w.Worker, rive.Data(data))
	require.NoError(t, err)

	var lines []string
	for _, e := range w.Journal.Entries() {
		lines = append(lines, simulator.FormatEntry(e))
	}
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, []string{
		"0001 -> Start",
		"0002 -> LoadFile id=1 bytes=" + strconv.Itoa(len(data)),
		"0003 <- OnFileLoaded id=1 h=1",
	}, lines[:3])
}

func TestSimulator_RequestIDsAfter(t *testing.T) {
	b := simulator.New(simulator.WithRequestIDsAfter(41))
	defer b.Stop()

	assert.Equal(t, command.RequestID(42), b.NextRequestID())
	assert.Equal(t, command.RequestID(43), b.NextRequestID())
}
