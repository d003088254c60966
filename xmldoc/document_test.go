package xmldoc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyInput(t *testing.T) {
	for _, input := range [][]byte{nil, {}, []byte("   \n\t ")} {
		_, err := Parse(input)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("<Format><Source></Format>"))
	var malformed *MalformedDocumentError
	require.ErrorAs(t, err, &malformed)
}

func TestTopLevelRejectsWrongRoot(t *testing.T) {
	doc, err := Parse([]byte(`<Source id="0" Name="test" />`))
	require.NoError(t, err)

	_, err = doc.TopLevel()
	var unexpected *UnexpectedRootError
	require.ErrorAs(t, err, &unexpected)
	assert.Equal(t, "Source", unexpected.Got)
}

func TestTopLevelReturnsChildren(t *testing.T) {
	doc, err := Parse([]byte(`<Format><Source id="0"/><Source id="1"/><Enums/></Format>`))
	require.NoError(t, err)

	top, err := doc.TopLevel()
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "Source", doc.Tag(top[0]))
	assert.Equal(t, "Enums", doc.Tag(top[2]))
}

func TestAttr(t *testing.T) {
	doc, err := Parse([]byte(`<Format><Module id="3" verbosity="63" Name="core"/></Format>`))
	require.NoError(t, err)
	top, err := doc.TopLevel()
	require.NoError(t, err)
	mod := top[0]

	name, err := doc.Attr(mod, "Name")
	require.NoError(t, err)
	assert.Equal(t, "core", name)

	_, err = doc.Attr(mod, "Path")
	var missing *MissingAttributeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Module", missing.Tag)
	assert.Equal(t, "Path", missing.Attr)

	id, err := doc.IntAttr(mod, "id")
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	_, err = doc.IntAttr(mod, "Name")
	var nan *NotANumberError
	require.ErrorAs(t, err, &nan)
	assert.Equal(t, "core", nan.Value)
}

func TestFindChild(t *testing.T) {
	doc, err := Parse([]byte(`<Format>
		<Source id="0" Name="a"/>
		<File Path="x"/>
		<Source id="2" Name="b"/>
	</Format>`))
	require.NoError(t, err)
	top, err := doc.TopLevel()
	require.NoError(t, err)

	id, err := doc.FindChild(top, "Source", "id", 2)
	require.NoError(t, err)
	name, err := doc.Attr(id, "Name")
	require.NoError(t, err)
	assert.Equal(t, "b", name)

	_, err = doc.FindChild(top, "Source", "id", 7)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Source", notFound.Tag)
	assert.Equal(t, 7, notFound.ID)
}

func TestFindChildMissingIDAttribute(t *testing.T) {
	doc, err := Parse([]byte(`<Format><Source/></Format>`))
	require.NoError(t, err)
	top, err := doc.TopLevel()
	require.NoError(t, err)

	_, err = doc.FindChild(top, "Source", "id", 0)
	var missing *MissingAttributeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "can't find attribute \"id\" in node Source", err.Error())
}

func TestDuplicateAttributeFirstWins(t *testing.T) {
	// xmlquery tolerates repeated attributes; the arena keeps the first.
	doc, err := Parse([]byte(`<Format><Event id="1" id="2"/></Format>`))
	if err != nil {
		// Some parser versions reject the duplicate outright, which is fine too.
		var malformed *MalformedDocumentError
		require.True(t, errors.As(err, &malformed))
		return
	}
	top, err := doc.TopLevel()
	require.NoError(t, err)
	id, err := doc.IntAttr(top[0], "id")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}
