package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandDefinitions(t *testing.T) {
	byName := make(map[string]*discordgo.ApplicationCommand, len(commandDefinitions))
	names := make([]string, 0, len(commandDefinitions))
	for _, cmd := range commandDefinitions {
		require.NotEmpty(t, cmd.Description, "command %s needs a description", cmd.Name)
		byName[cmd.Name] = cmd
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"bump", "stopbump", "ticket", "close"}, names)

	require.Len(t, byName["bump"].Options, 1, "bump takes a target channel")
	bumpOpt := byName["bump"].Options[0]
	assert.Equal(t, optionChannel, bumpOpt.Name)
	assert.Equal(t, discordgo.ApplicationCommandOptionChannel, bumpOpt.Type)
	assert.True(t, bumpOpt.Required)

	require.Len(t, byName["ticket"].Options, 1, "ticket takes a subject")
	ticketOpt := byName["ticket"].Options[0]
	assert.Equal(t, optionSubject, ticketOpt.Name)
	assert.Equal(t, discordgo.ApplicationCommandOptionString, ticketOpt.Type)
	assert.True(t, ticketOpt.Required)
}

func commandInteraction(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "invoked-chan",
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}}
}

func TestBumpChannelID(t *testing.T) {
	withOption := commandInteraction("bump", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  optionChannel,
		Type:  discordgo.ApplicationCommandOptionChannel,
		Value: "bump-chan",
	})
	assert.Equal(t, "bump-chan", bumpChannelID(withOption))

	// Missing option falls back to the invoking channel.
	assert.Equal(t, "invoked-chan", bumpChannelID(commandInteraction("bump")))
}

func TestTicketSubject(t *testing.T) {
	withOption := commandInteraction("ticket", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  optionSubject,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: "mod cassé",
	})
	assert.Equal(t, "mod cassé", ticketSubject(withOption))
	assert.Equal(t, "", ticketSubject(commandInteraction("ticket")))
}

func TestInteractionUser(t *testing.T) {
	guildUser := &discordgo.User{ID: "member-1", Username: "alice"}
	dmUser := &discordgo.User{ID: "dm-1", Username: "bob"}

	fromGuild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: guildUser},
	}}
	assert.Equal(t, guildUser, interactionUser(fromGuild))

	fromDM := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		User: dmUser,
	}}
	assert.Equal(t, dmUser, interactionUser(fromDM))
}

func TestTicketChannelName(t *testing.T) {
	assert.Equal(t, "ticket-alice", ticketChannelName("Alice"))
	assert.Equal(t, "ticket-jean-du-pont", ticketChannelName("  Jean Du Pont "))
}
