package mods

import (
	"regexp"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/shop-replace/modbot/internal/model"
)

var mediaFireRe = regexp.MustCompile(`https?://(www\.)?mediafire\.com/\S+`)

// categoryKeywords classifies a mod name when no type field survives in the
// embed. First category whose keyword matches wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{model.CategoryWeapon, []string{"arme", "weapon"}},
	{model.CategoryVehicle, []string{"véhicule", "vehicle"}},
	{model.CategoryCharacter, []string{"personnage", "character", "ped"}},
}

// fieldRule is one step of a per-field fallback chain. It returns "" when it
// cannot recover a value from the message.
type fieldRule func(m *discordgo.Message, e *discordgo.MessageEmbed) string

// resolve walks a fallback chain and returns the first recovered value.
func resolve(m *discordgo.Message, e *discordgo.MessageEmbed, rules []fieldRule) string {
	for _, rule := range rules {
		if v := rule(m, e); v != "" {
			return v
		}
	}
	return ""
}

// findField returns the normalized value of the first embed field whose
// label satisfies match.
func findField(e *discordgo.MessageEmbed, match func(label string) bool) string {
	for _, f := range e.Fields {
		if f == nil {
			continue
		}
		if match(f.Name) {
			return Normalize(f.Value)
		}
	}
	return ""
}

var nameRules = []fieldRule{
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		return Normalize(e.Title)
	},
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		if e.Author == nil {
			return ""
		}
		return Normalize(e.Author.Name)
	},
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		return findField(e, func(label string) bool {
			lower := strings.ToLower(label)
			return strings.Contains(lower, "nom") ||
				strings.Contains(lower, "name") ||
				strings.Contains(label, "▸")
		})
	},
}

var typeRules = []fieldRule{
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		return findField(e, func(label string) bool {
			lower := strings.ToLower(label)
			return strings.Contains(lower, "type") ||
				strings.Contains(lower, "catégorie")
		})
	},
}

var descriptionRules = []fieldRule{
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		return Normalize(e.Description)
	},
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		return findField(e, func(label string) bool {
			return strings.Contains(strings.ToLower(label), "description") ||
				strings.Contains(label, fieldDescriptionHeader)
		})
	},
}

var downloadRules = []fieldRule{
	// Link-style button pointing at the file host, or labeled "télécharger".
	func(m *discordgo.Message, _ *discordgo.MessageEmbed) string {
		for _, btn := range linkButtons(m) {
			if btn.URL == "" {
				continue
			}
			if strings.Contains(btn.URL, "mediafire.com") ||
				strings.Contains(strings.ToLower(btn.Label), "télécharger") {
				return btn.URL
			}
		}
		return ""
	},
	// File-host URL anywhere in a field value.
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		for _, f := range e.Fields {
			if f == nil {
				continue
			}
			if match := mediaFireRe.FindString(f.Value); match != "" {
				return match
			}
		}
		return ""
	},
	// File-host URL inside the embed description.
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		return mediaFireRe.FindString(e.Description)
	},
}

var imageRules = []fieldRule{
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		if e.Image == nil {
			return ""
		}
		return e.Image.URL
	},
	func(_ *discordgo.Message, e *discordgo.MessageEmbed) string {
		if e.Thumbnail == nil {
			return ""
		}
		return e.Thumbnail.URL
	},
}

// linkButtons collects the link-style buttons attached to a message, in row
// order.
func linkButtons(m *discordgo.Message) []*discordgo.Button {
	var buttons []*discordgo.Button
	for _, row := range m.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if btn, ok := c.(*discordgo.Button); ok && btn.Style == discordgo.LinkButton {
				buttons = append(buttons, btn)
			}
		}
	}
	return buttons
}

// classifyByName assigns a category name as type by scanning the lowercased
// name against the keyword table.
func classifyByName(name string) string {
	lower := strings.ToLower(name)
	for _, entry := range categoryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.category
			}
		}
	}
	return ""
}

// applyDefaults fills every unrecovered field with its documented default so
// callers never see a partially populated record.
func applyDefaults(rec *model.ModRecord) {
	if rec.Name == "" {
		rec.Name = model.DefaultName
	}
	if rec.Type == "" {
		rec.Type = model.DefaultType
	}
	if rec.Description == "" {
		rec.Description = model.DefaultDescription
	}
	if rec.DownloadLink == "" {
		rec.DownloadLink = model.DefaultDownloadLink
	}
}

// Extract reconstructs a mod record from a message using per-field fallback
// chains. It returns nil when the message carries no embed, and nil (never a
// partial record) when the message shape is malformed enough to panic the
// probing. Callers must treat nil as "not a mod message", not as an error.
func Extract(m *discordgo.Message) (rec *model.ModRecord) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
		}
	}()

	if m == nil || len(m.Embeds) == 0 || m.Embeds[0] == nil {
		return nil
	}
	e := m.Embeds[0]

	rec = &model.ModRecord{
		Name:         resolve(m, e, nameRules),
		Type:         resolve(m, e, typeRules),
		Description:  resolve(m, e, descriptionRules),
		DownloadLink: resolve(m, e, downloadRules),
		Image:        resolve(m, e, imageRules),
		ChannelID:    m.ChannelID,
		MessageID:    m.ID,
		GuildID:      m.GuildID,
		Date:         m.Timestamp,
	}

	if rec.Type == "" {
		rec.Type = classifyByName(rec.Name)
	}

	applyDefaults(rec)
	return rec
}
