package rickandmorty

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Docs: https://rickandmortyapi.com/documentation/#character-schema
type Character struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Status   string       `json:"status"`
	Species  string       `json:"species"`
	Type     string       `json:"type"`
	Gender   string       `json:"gender"`
	Origin   LocationLink `json:"origin"`
	Location LocationLink `json:"location"`
	Image    string       `json:"image"`
	Episode  []string     `json:"episode"`
	URL      string       `json:"url"`
	Created  time.Time    `json:"created"`
}

func (c Character) ItemID() string {
	return strconv.Itoa(c.ID)
}

type LocationLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DisplayName falls back to "unknown" like the API does for missing links.
func (l LocationLink) DisplayName() string {
	if l.Name == "" {
		return "unknown"
	}
	return l.Name
}

// Docs: https://rickandmortyapi.com/documentation/#episode-schema
type Episode struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	AirDate    string    `json:"air_date"`
	Episode    string    `json:"episode"`
	Characters []string  `json:"characters"`
	URL        string    `json:"url"`
	Created    time.Time `json:"created"`
}

// Code formats the episode code as T<season>E<episode>, e.g. "S01E10" -> "T01E10".
// Codes that do not follow the SxxEyy shape are returned unchanged.
func (e Episode) Code() string {
	code := e.Episode
	if len(code) != 6 || !strings.HasPrefix(code, "S") || code[3] != 'E' {
		return code
	}
	return fmt.Sprintf("T%sE%s", code[1:3], code[4:6])
}

// Info is the pagination envelope of list endpoints.
type Info struct {
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

type CharactersPage struct {
	Info    Info        `json:"info"`
	Results []Character `json:"results"`
}

// NextURL returns the next page URL, or empty when this is the last page.
func (p *CharactersPage) NextURL() string {
	if p.Info.Next == nil {
		return ""
	}
	return *p.Info.Next
}
