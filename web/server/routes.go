package server

import (
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/diamondburned/arikawa/v3/discord"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/starshine-sys/guildcache/cache"
	"github.com/starshine-sys/guildcache/common"
)

type statsResponse struct {
	cache.Stats

	Summary string `json:"summary"`

	TotalGuilds *int64 `json:"total_guilds,omitempty"`
	TotalUsers  *int64 `json:"total_users,omitempty"`
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st := s.cache.Stats()
	resp := statsResponse{
		Stats: st,
		Summary: humanize.Comma(int64(st.Guilds)) + " guilds, " +
			humanize.Comma(int64(st.Members)) + " members, " +
			humanize.Comma(int64(st.Users)) + " users",
	}

	if s.totals != nil {
		guilds, users, err := s.totals(r.Context())
		if err != nil {
			s.log.Warnf("Couldn't get totals: %v", err)
		} else {
			resp.TotalGuilds, resp.TotalUsers = &guilds, &users
		}
	}

	render.JSON(w, r, resp)
}

type guildResponse struct {
	ID          discord.GuildID `json:"id"`
	Name        string          `json:"name"`
	OwnerID     discord.UserID  `json:"owner_id"`
	Joined      time.Time       `json:"joined_at"`
	MemberCount int64           `json:"member_count"`
	Members     string          `json:"members"`

	Channels      int `json:"channels"`
	Roles         int `json:"roles"`
	CachedMembers int `json:"cached_members"`

	LogChannel         discord.ChannelID `json:"log_channel,omitempty"`
	LogChannelMissing  []string          `json:"log_channel_missing_permissions,omitempty"`
	BypassRole         discord.RoleID    `json:"bypass_role,omitempty"`
	NicknameBypassRole discord.RoleID    `json:"nickname_bypass_role,omitempty"`
	AdminRole          discord.RoleID    `json:"admin_role,omitempty"`
	TrainerRole        discord.RoleID    `json:"trainer_role,omitempty"`

	Permissions *permissions `json:"permissions,omitempty"`
}

func (s *Server) guild(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.guildID(w, r)
	if !ok {
		return
	}

	g, ok := s.cache.Guild(guildID)
	if !ok {
		if s.cache.IsUnavailable(guildID) {
			s.error(w, r, http.StatusServiceUnavailable, "Guild is unavailable", nil)
			return
		}
		s.error(w, r, http.StatusNotFound, "Guild not found", nil)
		return
	}

	resp := guildResponse{
		ID:          g.ID,
		Name:        g.Name,
		OwnerID:     g.OwnerID,
		Joined:      g.Joined,
		MemberCount: g.MemberCount(),
		Members:     humanize.Comma(g.MemberCount()),

		Channels:      len(s.cache.GuildChannelIDs(guildID)),
		Roles:         len(s.cache.GuildRoleIDs(guildID)),
		CachedMembers: len(s.cache.GuildMemberIDs(guildID)),

		LogChannel:         g.LogChannel,
		BypassRole:         g.BypassRole,
		NicknameBypassRole: g.NicknameBypassRole,
		AdminRole:          g.AdminRole,
		TrainerRole:        g.TrainerRole,
	}

	if perms, ok := s.cache.GuildPermissions(guildID); ok {
		p := newPermissions(perms)
		resp.Permissions = &p
	}

	if g.LogChannel.IsValid() {
		if perms, ok := s.cache.ChannelPermissions(g.LogChannel); ok {
			resp.LogChannelMissing = common.MissingPerms(perms, common.LogPerms)
		}
	}

	render.JSON(w, r, resp)
}

type channelPermissions struct {
	ID   discord.ChannelID `json:"id"`
	Name string            `json:"name"`
	permissions
}

type guildPermissionsResponse struct {
	Guild    permissions          `json:"guild"`
	Channels []channelPermissions `json:"channels"`
}

func (s *Server) guildPermissions(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.guildID(w, r)
	if !ok {
		return
	}

	perms, ok := s.cache.GuildPermissions(guildID)
	if !ok {
		s.error(w, r, http.StatusNotFound, "No permissions cached for guild", nil)
		return
	}

	resp := guildPermissionsResponse{Guild: newPermissions(perms)}
	for _, ch := range s.cache.GuildChannels(guildID) {
		perms, ok := s.cache.ChannelPermissions(ch.ID)
		if !ok {
			continue
		}

		resp.Channels = append(resp.Channels, channelPermissions{
			ID:          ch.ID,
			Name:        ch.Name,
			permissions: newPermissions(perms),
		})
	}

	render.JSON(w, r, resp)
}

type memberResponse struct {
	GuildID  discord.GuildID  `json:"guild_id"`
	UserID   discord.UserID   `json:"user_id"`
	Username string           `json:"username"`
	Nick     string           `json:"nick,omitempty"`
	RoleIDs  []discord.RoleID `json:"role_ids"`
	Pending  bool             `json:"pending"`

	Permissions permissions `json:"permissions"`
}

func (s *Server) member(w http.ResponseWriter, r *http.Request) {
	guildID, ok := s.guildID(w, r)
	if !ok {
		return
	}

	userID, err := discord.ParseSnowflake(chi.URLParam(r, "userID"))
	if err != nil {
		s.error(w, r, http.StatusBadRequest, "Invalid user ID", nil)
		return
	}

	m, ok := s.cache.Member(guildID, discord.UserID(userID))
	if !ok {
		s.error(w, r, http.StatusNotFound, "Member not found", nil)
		return
	}

	perms, err := s.cache.MemberPermissions(guildID, discord.UserID(userID))
	if err != nil {
		s.permissionError(w, r, err)
		return
	}

	resp := memberResponse{
		GuildID:     guildID,
		UserID:      m.UserID(),
		Nick:        m.Nick,
		RoleIDs:     m.RoleIDs,
		Pending:     m.Pending,
		Permissions: newPermissions(perms),
	}
	if m.User != nil {
		resp.Username = m.User.Username
	}

	render.JSON(w, r, resp)
}

// channelPermissions returns the bot's cached permissions in the channel,
// or the given user's permissions if the user query parameter is set.
func (s *Server) channelPermissions(w http.ResponseWriter, r *http.Request) {
	channelID, err := discord.ParseSnowflake(chi.URLParam(r, "channelID"))
	if err != nil {
		s.error(w, r, http.StatusBadRequest, "Invalid channel ID", nil)
		return
	}

	if u := r.URL.Query().Get("user"); u != "" {
		userID, err := discord.ParseSnowflake(u)
		if err != nil {
			s.error(w, r, http.StatusBadRequest, "Invalid user ID", nil)
			return
		}

		perms, err := s.cache.MemberChannelPermissions(discord.ChannelID(channelID), discord.UserID(userID))
		if err != nil {
			s.permissionError(w, r, err)
			return
		}
		render.JSON(w, r, newPermissions(perms))
		return
	}

	perms, ok := s.cache.ChannelPermissions(discord.ChannelID(channelID))
	if !ok {
		s.error(w, r, http.StatusNotFound, "No permissions cached for channel", nil)
		return
	}
	render.JSON(w, r, newPermissions(perms))
}

func (s *Server) permissionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cache.ErrNotCached):
		s.error(w, r, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, cache.ErrUnsupportedChannelKind):
		s.error(w, r, http.StatusBadRequest, "Channel type has no permissions", nil)
	default:
		s.error(w, r, http.StatusInternalServerError, "Couldn't compute permissions", err)
	}
}

func (s *Server) guildID(w http.ResponseWriter, r *http.Request) (discord.GuildID, bool) {
	id, err := discord.ParseSnowflake(chi.URLParam(r, "guildID"))
	if err != nil {
		s.error(w, r, http.StatusBadRequest, "Invalid guild ID", nil)
		return 0, false
	}
	return discord.GuildID(id), true
}
