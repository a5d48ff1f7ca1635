package mods

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/shop-replace/modbot/internal/model"
)

// ExtractStrict reconstructs a record using the exact embed shape the
// current publisher emits. It is the live read path: narrower and cheaper
// than Extract, with no heuristics beyond falling back to the embed title
// for legacy messages that predate the banner title. No defaults are
// applied; the scanner falls back to the heuristic extractor when the
// strict shape yields no name or type.
func ExtractStrict(m *discordgo.Message) *model.ModRecord {
	if m == nil || len(m.Embeds) == 0 || m.Embeds[0] == nil {
		return nil
	}
	e := m.Embeds[0]

	rec := &model.ModRecord{
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		GuildID:   m.GuildID,
		Date:      m.Timestamp,
	}

	for _, f := range e.Fields {
		if f == nil {
			continue
		}
		switch f.Name {
		case fieldNameHeader:
			rec.Name = Normalize(strings.TrimPrefix(f.Value, valueMarker))
		case fieldTypeLabel:
			rec.Type = Normalize(f.Value)
		case fieldDescriptionHeader:
			rec.Description = Normalize(strings.TrimPrefix(f.Value, valueMarker))
		}
	}

	if rec.Name == "" && e.Title != "" && e.Title != embedTitle {
		rec.Name = Normalize(e.Title)
	}
	if rec.Description == "" {
		rec.Description = Normalize(e.Description)
	}
	if e.Image != nil {
		rec.Image = e.Image.URL
	}
	for _, btn := range linkButtons(m) {
		if btn.URL != "" {
			rec.DownloadLink = btn.URL
			break
		}
	}

	return rec
}
