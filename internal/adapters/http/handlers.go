package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Connectify/internal/app/orch"
	"github.com/dkeye/Connectify/internal/config"
	"github.com/dkeye/Connectify/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type CreateMeetingRequest struct {
	Title string `json:"title"`
	Host  string `json:"host"`
}

type MeetingResponse struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Host    string `json:"host"`
	Active  bool   `json:"active"`
	Live    bool   `json:"live"`
	Members int    `json:"members"`
}

type handlers struct {
	orch       *orch.Orchestrator
	meetings   MeetingStore
	iceServers []webrtc.ICEServer
}

func iceServers(in []config.ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(in))
	for _, s := range in {
		srv := webrtc.ICEServer{URLs: s.URLs}
		if s.Username != "" {
			srv.Username = s.Username
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, srv)
	}
	return out
}

func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

func (h *handlers) roomMembers(c *gin.Context) {
	room, err := domain.Canonicalize(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.orch.Rooms.Exists(room) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room, "members": h.orch.MembersOf(room)})
}

func (h *handlers) evictRoom(c *gin.Context) {
	room, err := domain.Canonicalize(c.Param("room"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.orch.Rooms.Exists(room) {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	n := h.orch.EvictRoom(room)
	log.Info().Str("module", "adapters.http").Str("room", string(room)).Int("evicted", n).Msg("room evicted")
	c.Status(http.StatusNoContent)
}

func (h *handlers) createMeeting(c *gin.Context) {
	if h.meetings == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "meetings are disabled"})
		return
	}
	var req CreateMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	m, err := h.meetings.Create(c.Request.Context(), req.Title, req.Host)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("create meeting")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create meeting"})
		return
	}
	c.JSON(http.StatusCreated, h.meetingResponse(m))
}

func (h *handlers) getMeeting(c *gin.Context) {
	if h.meetings == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "meetings are disabled"})
		return
	}
	room, err := domain.Canonicalize(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := h.meetings.FindByCode(c.Request.Context(), room.MeetingCode())
	if errors.Is(err, domain.ErrMeetingNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("code", string(room)).Msg("find meeting")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load meeting"})
		return
	}
	c.JSON(http.StatusOK, h.meetingResponse(m))
}

func (h *handlers) meetingResponse(m *domain.Meeting) MeetingResponse {
	room := domain.RoomID(m.Code)
	members := len(h.orch.Rooms.Members(room))
	return MeetingResponse{
		Code:    m.Code,
		Title:   m.Title,
		Host:    m.HostName,
		Active:  m.Active,
		Live:    members > 0,
		Members: members,
	}
}

func (h *handlers) listICEServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": h.iceServers})
}
