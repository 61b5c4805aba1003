package source

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

const collectionXML = `<?xml version="1.0" encoding="utf-8" standalone="yes"?>
<items totalitems="3" termsofuse="https://boardgamegeek.com/xmlapi/termsofuse" pubdate="Sat, 05 Oct 2024 10:00:00 +0000">
	<item objecttype="thing" objectid="13" subtype="boardgame" collid="1001">
		<name sortindex="1">Catan</name>
		<yearpublished>1995</yearpublished>
		<status own="1" prevowned="0" fortrade="0" want="0" wanttoplay="0" wanttobuy="0" wishlist="0" preordered="0" lastmodified="2020-01-01 10:00:00" />
		<numplays>2</numplays>
	</item>
	<item objecttype="thing" objectid="230802" subtype="boardgame" collid="1002">
		<name sortindex="1">Azul</name>
	</item>
	<item objecttype="thing" objectid="007" subtype="boardgame" collid="1003">
		<name sortindex="5">  The Castles of Burgundy  </name>
	</item>
</items>`

const playsXML = `<?xml version="1.0" encoding="utf-8"?>
<plays username="collector" userid="42" total="3" page="1" termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
	<play id="9001" date="2024-01-01" quantity="1" length="60" incomplete="0" nowinstats="0" location="">
		<item name="Catan" objecttype="thing" objectid="13">
			<subtypes><subtype value="boardgame" /></subtypes>
		</item>
	</play>
	<play id="9002" date="2024-03-03" quantity="1" length="0" incomplete="0" nowinstats="0" location="">
		<item name="Catan" objecttype="thing" objectid="13" />
	</play>
	<play id="9003" date="2023-12-24" quantity="2" length="0" incomplete="0" nowinstats="0" location="">
		<item name="The Castles of Burgundy" objecttype="thing" objectid="007" />
	</play>
</plays>`

func TestParseCollection(t *testing.T) {
	games, err := ParseCollection([]byte(collectionXML))
	require.NoError(t, err)

	assert.Equal(t, []types.GameRecord{
		{GameID: "13", Name: "Catan"},
		{GameID: "230802", Name: "Azul"},
		{GameID: "007", Name: "The Castles of Burgundy"},
	}, games)
}

func TestParseCollectionEmpty(t *testing.T) {
	games, err := ParseCollection([]byte(`<items totalitems="0"></items>`))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestParsePlays(t *testing.T) {
	plays, err := ParsePlays([]byte(playsXML))
	require.NoError(t, err)
	require.Len(t, plays, 3)

	assert.Equal(t, "13", plays[0].GameID)
	assert.Equal(t, "2024-01-01", plays[0].PlayedOn.Format(types.DateLayout))
	assert.Equal(t, "13", plays[1].GameID)
	assert.Equal(t, "2024-03-03", plays[1].PlayedOn.Format(types.DateLayout))
	assert.Equal(t, "007", plays[2].GameID)
}

func TestParsePlayPageAttributes(t *testing.T) {
	page, err := ParsePlayPage([]byte(playsXML))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Plays, 3)

	page, err = ParsePlayPage([]byte(`<plays username="x"></plays>`))
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Plays)
}

func TestParseCollectionFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{name: "empty", doc: "  ", wantMsg: "empty document"},
		{name: "truncated", doc: `<items><item objectid="1"><name>Catan</name>`, wantMsg: "XML syntax error"},
		{name: "wrong root", doc: `<plays></plays>`, wantMsg: "unexpected root element <plays>"},
		{name: "missing objectid", doc: `<items><item><name>Catan</name></item></items>`, wantMsg: "item 1 has no objectid"},
		{name: "missing name", doc: `<items><item objectid="1"></item></items>`, wantMsg: "item 1 has no name element"},
		{name: "blank name", doc: `<items><item objectid="1"><name> </name></item></items>`, wantMsg: "item 1 has an empty name"},
		{name: "second root", doc: `<items></items><items></items>`, wantMsg: "second root element"},
		{name: "trailing text", doc: `<items></items>garbage`, wantMsg: "text after root element"},
		{
			name:    "service error document",
			doc:     `<errors><error><message>Invalid username specified</message></error></errors>`,
			wantMsg: "Invalid username specified",
		},
		{
			name:    "still processing message",
			doc:     `<message>Your request for this collection has been accepted and will be processed.</message>`,
			wantMsg: "has been accepted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, err := ParseCollection([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, games)
			assert.True(t, errors.Is(err, types.ErrParse))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParsePlaysFailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{name: "wrong root", doc: `<items></items>`, wantMsg: "unexpected root element <items>"},
		{name: "no item", doc: `<plays><play date="2024-01-01"></play></plays>`, wantMsg: "play 1 has no item reference"},
		{name: "no identity", doc: `<plays><play date="2024-01-01"><item name="Catan"/></play></plays>`, wantMsg: "play 1 item has no objectid"},
		{name: "no date", doc: `<plays><play><item objectid="1"/></play></plays>`, wantMsg: "invalid date"},
		{name: "bad date", doc: `<plays><play date="2024-02-30"><item objectid="1"/></play></plays>`, wantMsg: "invalid date"},
		{name: "bad total", doc: `<plays total="many"></plays>`, wantMsg: "invalid total attribute"},
		{
			name: "one good play then a bad one",
			doc: `<plays>
				<play date="2024-01-01"><item objectid="1"/></play>
				<play date="2024-01-02"><item/></play>
			</plays>`,
			wantMsg: "play 2 item has no objectid",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plays, err := ParsePlays([]byte(tt.doc))
			require.Error(t, err)
			assert.Nil(t, plays)
			assert.True(t, errors.Is(err, types.ErrParse))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseCollectionProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every generated item is returned in order", prop.ForAll(
		func(names []string) bool {
			var b strings.Builder
			b.WriteString("<items>")
			for i, n := range names {
				fmt.Fprintf(&b, `<item objectid="%04d"><name>%s</name></item>`, i, n)
			}
			b.WriteString("</items>")

			games, err := ParseCollection([]byte(b.String()))
			if err != nil || len(games) != len(names) {
				return false
			}
			for i, g := range games {
				if g.GameID != fmt.Sprintf("%04d", i) || g.Name != names[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
