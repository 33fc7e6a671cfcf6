package bluesky

import (
	"regexp"
	"strings"
	"time"

	"github.com/bluesky-social/indigo/api/bsky"
	"github.com/rivo/uniseg"
)

const (
	// MaxGraphemes is the longest post text Bluesky accepts.
	MaxGraphemes = 300

	minLinkText = 24
	ellipsis    = "..."
)

// Post is a message split into plain and linked segments.
type Post struct {
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Text string `json:"text"`
	URI  string `json:"uri,omitempty"`
}

type RichText struct {
	Text   string
	Facets []*bsky.RichtextFacet
}

var linkRe = regexp.MustCompile(`https?://[^\s]+`)

// PostFromText splits text so that every http(s) URL becomes its own
// linked segment.
func PostFromText(text string) Post {
	var p Post

	last := 0
	for _, loc := range linkRe.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			p.Segments = append(p.Segments, Segment{Text: text[last:loc[0]]})
		}
		link := text[loc[0]:loc[1]]
		p.Segments = append(p.Segments, Segment{Text: link, URI: link})
		last = loc[1]
	}
	if last < len(text) {
		p.Segments = append(p.Segments, Segment{Text: text[last:]})
	}

	return p
}

// Len is the post length in grapheme clusters.
func (p *Post) Len() int {
	n := 0
	for _, seg := range p.Segments {
		n += uniseg.GraphemeClusterCount(seg.Text)
	}
	return n
}

// Fit shortens the post to at most limit graphemes and reports whether it
// had to. Link segments lose visible text first, down to minLinkText, and
// keep their full URI; after that text is dropped from the end.
func (p *Post) Fit(limit int) bool {
	excess := p.Len() - limit
	if excess <= 0 {
		return false
	}

	for excess > 0 {
		i := p.longestLink()
		if i < 0 {
			break
		}
		seg := &p.Segments[i]
		n := uniseg.GraphemeClusterCount(seg.Text)
		seg.Text = shortenLink(seg.URI, max(n-excess, minLinkText))
		excess = p.Len() - limit
	}

	for excess > 0 && len(p.Segments) > 0 {
		last := &p.Segments[len(p.Segments)-1]
		n := uniseg.GraphemeClusterCount(last.Text)
		if n <= excess {
			p.Segments = p.Segments[:len(p.Segments)-1]
		} else {
			last.Text = truncateGraphemes(last.Text, n-excess)
		}
		excess = p.Len() - limit
	}

	return true
}

// longestLink returns the index of the longest link segment that can still
// be shortened, or -1.
func (p *Post) longestLink() int {
	best, bestLen := -1, minLinkText
	for i, seg := range p.Segments {
		if seg.URI == "" {
			continue
		}
		if n := uniseg.GraphemeClusterCount(seg.Text); n > bestLen {
			best, bestLen = i, n
		}
	}
	return best
}

// shortenLink renders uri without its scheme in at most n graphemes.
func shortenLink(uri string, n int) string {
	text := uri
	if i := strings.Index(text, "://"); i >= 0 {
		text = text[i+3:]
	}
	if uniseg.GraphemeClusterCount(text) <= n {
		return text
	}
	return truncateGraphemes(text, n-len(ellipsis)) + ellipsis
}

func truncateGraphemes(s string, n int) string {
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for i := 0; i < n && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return b.String()
}

// Into joins the segments, recording a link facet over the UTF-8 byte range
// of every segment that carries a URI.
func (p *Post) Into() RichText {
	var text string
	var facets []*bsky.RichtextFacet

	for _, seg := range p.Segments {
		if seg.Text == "" {
			continue
		}

		start := int64(len(text))
		text += seg.Text
		end := int64(len(text))

		if seg.URI != "" {
			facets = append(facets, &bsky.RichtextFacet{
				Index: &bsky.RichtextFacet_ByteSlice{
					ByteStart: start,
					ByteEnd:   end,
				},
				Features: []*bsky.RichtextFacet_Features_Elem{
					{
						RichtextFacet_Link: &bsky.RichtextFacet_Link{
							Uri: seg.URI,
						},
					},
				},
			})
		}
	}

	return RichText{
		Text:   text,
		Facets: facets,
	}
}

func BuildPost(richText RichText, languages []string) *bsky.FeedPost {
	return &bsky.FeedPost{
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Langs:     languages,
		Text:      richText.Text,
		Facets:    richText.Facets,
	}
}
