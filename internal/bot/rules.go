package bot

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/shop-replace/modbot/internal/cache"
	"github.com/shop-replace/modbot/internal/store"
)

const (
	// RulesAcceptCustomID is the component id of the rules acceptance button.
	RulesAcceptCustomID = "rules_accept"

	rulesPrompt       = "📜 Lisez les règles du serveur puis cliquez sur le bouton ci-dessous pour accéder au reste du serveur."
	rulesAcceptLabel  = "✅ J'accepte les règles"
	rulesAcceptedMsg  = "Merci ! Vous avez maintenant accès au serveur."
	rulesGrantFailMsg = "Impossible de vous attribuer le rôle, contactez un membre du staff."
)

// RulesGateway is the slice of the Discord session the rules gate needs.
type RulesGateway interface {
	GrantRole(guildID, userID, roleID string) error
	IsMember(guildID, userID string) (bool, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// RulesService gates new members behind rules acceptance. Accepting grants
// the member role and records the user as known.
type RulesService struct {
	gateway RulesGateway
	store   *store.Store
	members *cache.MemberCache
	guildID string
	roleID  string
	logger  *slog.Logger
}

// NewRulesService creates a RulesService granting roleID on acceptance.
func NewRulesService(gateway RulesGateway, st *store.Store, members *cache.MemberCache, guildID, roleID string, logger *slog.Logger) *RulesService {
	return &RulesService{
		gateway: gateway,
		store:   st,
		members: members,
		guildID: guildID,
		roleID:  roleID,
		logger:  logger,
	}
}

// PostPrompt posts the rules prompt with its acceptance button into the
// rules channel.
func (r *RulesService) PostPrompt(channelID string) error {
	_, err := r.gateway.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: rulesPrompt,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    rulesAcceptLabel,
						Style:    discordgo.SuccessButton,
						CustomID: RulesAcceptCustomID,
					},
				},
			},
		},
	})
	return err
}

// Accept handles a member clicking the acceptance button. It returns the
// ephemeral reply to show the member.
func (r *RulesService) Accept(userID, username string) string {
	if err := r.gateway.GrantRole(r.guildID, userID, r.roleID); err != nil {
		r.logger.Error("Failed to grant member role", "userId", userID, "error", err)
		return rulesGrantFailMsg
	}
	if err := r.store.RecordRulesAcceptance(userID, username); err != nil {
		r.logger.Error("Failed to record rules acceptance", "userId", userID, "error", err)
	}
	r.members.Set(userID, true)

	r.logger.Info("Rules accepted", "userId", userID, "username", username)
	return rulesAcceptedMsg
}

// IsMember reports whether the user belongs to the guild, consulting the
// member cache before Discord.
func (r *RulesService) IsMember(userID string) (bool, error) {
	if isMember, ok := r.members.Get(userID); ok {
		return isMember, nil
	}
	isMember, err := r.gateway.IsMember(r.guildID, userID)
	if err != nil {
		return false, err
	}
	r.members.Set(userID, isMember)
	return isMember, nil
}

// HasAccepted reports whether the user already accepted the rules.
func (r *RulesService) HasAccepted(userID string) (bool, error) {
	return r.store.IsKnownUser(userID)
}
