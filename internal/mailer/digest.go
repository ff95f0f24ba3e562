// Package mailer renders purchase digests and delivers them over SMTP.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"unicornfarm/internal/models"
)

// DigestSubject is the subject line of every purchase digest.
const DigestSubject = "A listing of all posts related to your purchased unicorn"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

//go:embed templates/*
var templateFS embed.FS

var (
	htmlDigest = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/digest.html"))
	textDigest = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/digest.txt"))
)

// Digest is a rendered purchase digest.
type Digest struct {
	Subject string
	Text    string
	HTML    string
	Posts   int
}

// DigestEntry is one post as shown in the digest.
type DigestEntry struct {
	Author string
	Body   string
	Date   string
	Time   string
}

type digestData struct {
	Subject string
	Name    string
	Posts   []DigestEntry
}

// Entries converts the unicorn's posts into digest rows, in the order given.
func Entries(unicorn *models.Unicorn) []DigestEntry {
	entries := make([]DigestEntry, 0, len(unicorn.Messages))
	for _, msg := range unicorn.Messages {
		entries = append(entries, DigestEntry{
			Author: msg.Author,
			Body:   msg.Message,
			Date:   msg.CreatedAt.Format(dateLayout),
			Time:   msg.CreatedAt.Format(timeLayout),
		})
	}
	return entries
}

// RenderDigest renders the HTML and plain-text digest of every post attached to unicorn.
func RenderDigest(unicorn *models.Unicorn) (Digest, error) {
	data := digestData{
		Subject: DigestSubject,
		Name:    unicorn.Name,
		Posts:   Entries(unicorn),
	}

	var html bytes.Buffer
	if err := htmlDigest.Execute(&html, data); err != nil {
		return Digest{}, fmt.Errorf("render html digest: %w", err)
	}

	var text bytes.Buffer
	if err := textDigest.Execute(&text, data); err != nil {
		return Digest{}, fmt.Errorf("render text digest: %w", err)
	}

	return Digest{
		Subject: DigestSubject,
		Text:    text.String(),
		HTML:    html.String(),
		Posts:   len(data.Posts),
	}, nil
}
