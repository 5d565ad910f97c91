package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Section is one titled block of narrative text.
type Section struct {
	Title string
	Body  string
}

// Sections is an insertion-ordered title → body mapping. It marshals to a
// JSON object whose keys keep that order.
type Sections []Section

// Set stores body under title. An existing title keeps its position and has
// its body replaced.
func (s *Sections) Set(title, body string) {
	for i := range *s {
		if (*s)[i].Title == title {
			(*s)[i].Body = body
			return
		}
	}
	*s = append(*s, Section{Title: title, Body: body})
}

// Get returns the body stored under title.
func (s Sections) Get(title string) (string, bool) {
	for _, sec := range s {
		if sec.Title == title {
			return sec.Body, true
		}
	}
	return "", false
}

// Titles returns section titles in insertion order.
func (s Sections) Titles() []string {
	out := make([]string, len(s))
	for i, sec := range s {
		out[i] = sec.Title
	}
	return out
}

func (s Sections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sec := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sec.Title)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(sec.Body)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Sections) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode sections: %w", err)
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode sections: expected object, got %v", tok)
	}
	out := Sections{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode sections: %w", err)
		}
		title, _ := keyTok.(string)
		var body string
		if err := dec.Decode(&body); err != nil {
			return fmt.Errorf("decode section %q: %w", title, err)
		}
		out.Set(title, body)
	}
	*s = out
	return nil
}
