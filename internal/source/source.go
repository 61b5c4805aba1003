// Package source parses the catalog service's collection and play-history
// markup into GameRecord and PlayRecord sequences.
//
// Parsing fails closed: a document that is malformed, has an unexpected
// root, or carries a record without its required fields yields an error
// wrapping types.ErrParse and no records at all.
package source

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/gameshelf/pkg/types"
)

// Root element names of the documents the catalog service returns.
const (
	rootCollection = "items"
	rootPlays      = "plays"
	rootErrors     = "errors"
	rootMessage    = "message"
)

type collectionDoc struct {
	XMLName xml.Name
	Items   []collectionItem `xml:"item"`
}

type collectionItem struct {
	ObjectID string    `xml:"objectid,attr"`
	Name     *textElem `xml:"name"`
}

type playsDoc struct {
	XMLName xml.Name
	Page    string     `xml:"page,attr"`
	Total   string     `xml:"total,attr"`
	Plays   []playElem `xml:"play"`
}

type playElem struct {
	Date string    `xml:"date,attr"`
	Item *playItem `xml:"item"`
}

type playItem struct {
	ObjectID string `xml:"objectid,attr"`
}

type textElem struct {
	Text string `xml:",chardata"`
}

// errorsDoc covers both the <errors><error><message> form and the bare
// <message> form the service sends while a request is still queued.
type errorsDoc struct {
	XMLName  xml.Name
	Text     string   `xml:",chardata"`
	Messages []string `xml:"error>message"`
}

// PlayPage is one page of play history together with the paging
// attributes of its root element. Total is zero when the document does not
// state it.
type PlayPage struct {
	Page  int
	Total int
	Plays []types.PlayRecord
}

// ParseCollection returns one GameRecord per item element, in document
// order.
func ParseCollection(data []byte) ([]types.GameRecord, error) {
	var doc collectionDoc
	if err := decodeStrict(data, &doc, rootCollection); err != nil {
		return nil, err
	}

	games := make([]types.GameRecord, 0, len(doc.Items))
	for i, item := range doc.Items {
		id := strings.TrimSpace(item.ObjectID)
		if id == "" {
			return nil, fmt.Errorf("%w: item %d has no objectid", types.ErrParse, i+1)
		}
		if item.Name == nil {
			return nil, fmt.Errorf("%w: item %s has no name element", types.ErrParse, id)
		}
		name := strings.TrimSpace(item.Name.Text)
		if name == "" {
			return nil, fmt.Errorf("%w: item %s has an empty name", types.ErrParse, id)
		}
		games = append(games, types.GameRecord{GameID: id, Name: name})
	}
	return games, nil
}

// ParsePlays returns one PlayRecord per play element, in document order.
func ParsePlays(data []byte) ([]types.PlayRecord, error) {
	page, err := ParsePlayPage(data)
	if err != nil {
		return nil, err
	}
	return page.Plays, nil
}

// ParsePlayPage parses one page of play history.
func ParsePlayPage(data []byte) (PlayPage, error) {
	var doc playsDoc
	if err := decodeStrict(data, &doc, rootPlays); err != nil {
		return PlayPage{}, err
	}

	page, err := optionalInt("page", doc.Page)
	if err != nil {
		return PlayPage{}, err
	}
	total, err := optionalInt("total", doc.Total)
	if err != nil {
		return PlayPage{}, err
	}

	plays := make([]types.PlayRecord, 0, len(doc.Plays))
	for i, p := range doc.Plays {
		if p.Item == nil {
			return PlayPage{}, fmt.Errorf("%w: play %d has no item reference", types.ErrParse, i+1)
		}
		id := strings.TrimSpace(p.Item.ObjectID)
		if id == "" {
			return PlayPage{}, fmt.Errorf("%w: play %d item has no objectid", types.ErrParse, i+1)
		}
		on, err := time.Parse(types.DateLayout, strings.TrimSpace(p.Date))
		if err != nil {
			return PlayPage{}, fmt.Errorf("%w: play %d of game %s has invalid date %q", types.ErrParse, i+1, id, p.Date)
		}
		plays = append(plays, types.PlayRecord{GameID: id, PlayedOn: on})
	}
	return PlayPage{Page: page, Total: total, Plays: plays}, nil
}

// decodeStrict decodes exactly one root element named root into v and
// rejects anything but whitespace, comments and processing instructions
// after it.
func decodeStrict(data []byte, v any, root string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: empty document", types.ErrParse)
	}

	name, err := rootName(data)
	if err != nil {
		return err
	}
	switch name {
	case root:
	case rootErrors, rootMessage:
		return fmt.Errorf("%w: service returned <%s>: %s", types.ErrParse, name, serviceMessage(data))
	default:
		return fmt.Errorf("%w: unexpected root element <%s>, want <%s>", types.ErrParse, name, root)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", types.ErrParse, err)
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", types.ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return fmt.Errorf("%w: text after root element", types.ErrParse)
			}
		case xml.StartElement:
			return fmt.Errorf("%w: second root element <%s>", types.ErrParse, t.Name.Local)
		}
	}
}

// rootName returns the local name of the first element in data.
func rootName(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: no root element", types.ErrParse)
			}
			return "", fmt.Errorf("%w: %v", types.ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t.Name.Local, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return "", fmt.Errorf("%w: text before root element", types.ErrParse)
			}
		}
	}
}

// serviceMessage extracts the human-readable text of an error or status
// document, best effort.
func serviceMessage(data []byte) string {
	var doc errorsDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "unreadable message"
	}
	if len(doc.Messages) > 0 {
		return strings.Join(doc.Messages, "; ")
	}
	if msg := strings.TrimSpace(doc.Text); msg != "" {
		return msg
	}
	return "no message"
}

func optionalInt(attr, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid %s attribute %q", types.ErrParse, attr, s)
	}
	return n, nil
}
