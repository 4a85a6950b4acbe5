package simulator

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/scene"
	"github.com/roach88/rivecq/internal/store"
)

func heroDoc(t *testing.T) *scene.Document {
	t.Helper()
	data, err := os.ReadFile("../../testdata/scenes/hero.yaml")
	require.NoError(t, err)
	doc, err := scene.Decode(data)
	require.NoError(t, err)
	return doc
}

func heroNode(t *testing.T, instance string) *node {
	t.Helper()
	doc := heroDoc(t)
	vm, ok := doc.ViewModel("Hero")
	require.True(t, ok)
	si, ok := vm.Instance(instance)
	require.True(t, ok)
	return newNode(doc, vm, si.Name, si.Values)
}

func TestNode_Resolve(t *testing.T) {
	n := heroNode(t, "Ada")

	tests := []struct {
		path string
		prop string
		ok   bool
	}{
		{"hp", "hp", true},
		{"/hp/", "hp", true},
		{"weapon/label", "label", true},
		{"weapon/gem/shine", "shine", true},
		{"weapon/missing", "", false},
		{"hp/label", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, p, ok := n.resolve(tt.path)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.prop, p.Name)
			}
		})
	}
}

func TestNode_Data(t *testing.T) {
	n := heroNode(t, "Ada")
	data := func(path string) command.ViewModelData {
		owner, p, ok := n.resolve(path)
		require.True(t, ok, path)
		return owner.data(p)
	}

	assert.Equal(t, `string="Ada"`, describe(data("name")))
	assert.Equal(t, "number=100", describe(data("hp")))
	assert.Equal(t, "boolean=true", describe(data("alive")))
	assert.Equal(t, "color=#FFFF3366", describe(data("tint")))
	assert.Equal(t, `enum="happy"`, describe(data("mood")))
	assert.Equal(t, "trigger", describe(data("jump")))
	assert.Equal(t, "viewModel", describe(data("weapon")))
	assert.Equal(t, "empty", describe(command.ViewModelData{}))
	assert.Equal(t, "mood", data("mood").Name)
}

func TestNode_SetChecksKinds(t *testing.T) {
	n := heroNode(t, "Grace")
	prop := func(name string) *scene.Property {
		p, ok := n.vm.Property(name)
		require.True(t, ok)
		return p
	}

	changed, err := n.set(prop("hp"), command.DataTypeNumber, float32(80))
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = n.set(prop("hp"), command.DataTypeNumber, float32(70))
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = n.set(prop("hp"), command.DataTypeString, "seventy")
	assert.Error(t, err)

	_, err = n.set(prop("mood"), command.DataTypeEnum, "bored")
	assert.Error(t, err)

	changed, err = n.set(prop("mood"), command.DataTypeEnum, "angry")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestNode_ChildIsCreatedOnce(t *testing.T) {
	n := heroNode(t, "Grace")
	p, ok := n.vm.Property("weapon")
	require.True(t, ok)

	c1, ok := n.child(p)
	require.True(t, ok)
	c2, ok := n.child(p)
	require.True(t, ok)
	assert.Same(t, c1, c2)
	assert.Equal(t, "", c1.values["label"])
	assert.Empty(t, n.lists["inventory"])
}

func TestCheckAudio(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"wav", "RIFF\x00\x00\x00\x00WAVEfmt ", "wav"},
		{"ogg", "OggS\x00\x02", "ogg"},
		{"flac", "fLaC\x00", "flac"},
		{"id3", "ID3\x04\x00", "mp3"},
		{"frame sync", "\xFF\xFB\x90\x00", "mp3"},
		{"riff without wave", "RIFF\x00\x00\x00\x00AVI ", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkAudio([]byte(tt.data))
			if tt.want == "" {
				assert.ErrorIs(t, err, errUnknownAudio)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatEntry(t *testing.T) {
	tests := []struct {
		entry store.Entry
		want  string
	}{
		{store.Entry{Seq: 1, Kind: store.KindCommand, Name: "Start"}, "0001 -> Start"},
		{
			store.Entry{Seq: 12, Kind: store.KindCommand, Name: "SetViewModelInstanceString", RequestID: 7, Handle: 3, Path: "weapon/label", Detail: `"Axe"`},
			`0012 -> SetViewModelInstanceString id=7 h=3 path=weapon/label "Axe"`,
		},
		{
			store.Entry{Seq: 13, Kind: store.KindReply, Name: "OnViewModelDataReceived", RequestID: 8, Handle: 3, Path: "hp", Detail: "number=42"},
			"0013 <- OnViewModelDataReceived id=8 h=3 path=hp number=42",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatEntry(tt.entry))
	}
}

func TestJournal_StampsSeq(t *testing.T) {
	var j Journal
	for _, name := range []string{"a", "b", "c"} {
		_, err := j.Record(t.Context(), store.Entry{Name: name})
		require.NoError(t, err)
	}
	entries := j.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, int64(3), entries[2].Seq)
	assert.Equal(t, "c", entries[2].Name)
}
