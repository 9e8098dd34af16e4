package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/shared"
)

type ConversationHandler struct {
	conversationSvc ConversationServiceInterface
}

func NewConversationHandler(conversationSvc ConversationServiceInterface) *ConversationHandler {
	return &ConversationHandler{conversationSvc: conversationSvc}
}

// @Summary Start conversation
// @Description Open a transcript for a tutoring session
// @Tags conversations
// @Accept json
// @Produce json
// @Param startRequest body dto.StartConversationRequest true "Session position"
// @Success 201 {object} shared.Response{data=model.ConversationTranscript}
// @Router /api/v1/conversations [post]
func (h *ConversationHandler) StartConversation(c *fiber.Ctx) error {
	var req dto.StartConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := dto.ValidateStruct(&req); err != nil {
		return err
	}

	transcript, err := h.conversationSvc.StartConversation(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, "Conversation started", transcript)
}

// @Summary Get transcript
// @Tags conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} shared.Response{data=model.ConversationTranscript}
// @Router /api/v1/conversations/{id} [get]
func (h *ConversationHandler) GetTranscript(c *fiber.Ctx) error {
	transcript, err := h.conversationSvc.GetConversationTranscript(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", transcript)
}

// @Summary Add message
// @Description Append one utterance to an active conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param messageRequest body dto.AddMessageRequest true "Message"
// @Success 200 {object} shared.Response{data=model.ConversationTranscript}
// @Router /api/v1/conversations/{id}/messages [post]
func (h *ConversationHandler) AddMessage(c *fiber.Ctx) error {
	var req dto.AddMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	transcript, err := h.conversationSvc.AddMessage(c.UserContext(), c.Params("id"), &req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Message added", transcript)
}

// @Summary Finish conversation
// @Description Close the transcript with a completion status
// @Tags conversations
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param finishRequest body dto.FinishConversationRequest false "Completion status"
// @Success 200 {object} shared.Response{data=model.ConversationTranscript}
// @Router /api/v1/conversations/{id}/finish [post]
func (h *ConversationHandler) FinishConversation(c *fiber.Ctx) error {
	var req dto.FinishConversationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return shared.NewBadRequestError(err, "Invalid request")
		}
	}

	transcript, err := h.conversationSvc.FinishConversation(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Conversation finished", transcript)
}

// @Summary Create summary
// @Description Store the learning report for a conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Param summaryRequest body dto.CreateSummaryRequest true "Summary"
// @Success 201 {object} shared.Response{data=model.ConversationSummary}
// @Router /api/v1/conversations/summaries [post]
func (h *ConversationHandler) CreateSummary(c *fiber.Ctx) error {
	var req dto.CreateSummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := dto.ValidateStruct(&req); err != nil {
		return err
	}

	summary, err := h.conversationSvc.CreateConversationSummary(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, "Summary created", summary)
}

// @Summary Get summary
// @Tags conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} shared.Response{data=model.ConversationSummary}
// @Router /api/v1/conversations/{id}/summary [get]
func (h *ConversationHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.conversationSvc.GetConversationSummary(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", summary)
}

// @Summary User conversations
// @Description The learner's transcripts, newest first
// @Tags conversations
// @Produce json
// @Param email path string true "User email"
// @Param limit query int false "Max results" default(20)
// @Success 200 {object} shared.Response{data=[]model.ConversationTranscript}
// @Router /api/v1/conversations/user/{email} [get]
func (h *ConversationHandler) GetUserConversations(c *fiber.Ctx) error {
	transcripts, err := h.conversationSvc.GetUserConversations(c.UserContext(), c.Params("email"), parseLimit(c, 20))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", transcripts)
}

// @Summary Episode conversations
// @Tags conversations
// @Produce json
// @Param season path int true "Season"
// @Param episode path int true "Episode"
// @Success 200 {object} shared.Response{data=[]model.ConversationTranscript}
// @Router /api/v1/conversations/episode/{season}/{episode} [get]
func (h *ConversationHandler) GetEpisodeConversations(c *fiber.Ctx) error {
	season, episode, err := parseSeasonEpisode(c)
	if err != nil {
		return err
	}

	transcripts, err := h.conversationSvc.GetEpisodeConversations(c.UserContext(), season, episode)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", transcripts)
}

// @Summary Conversation analytics
// @Tags conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} shared.Response{data=dto.ConversationAnalyticsResponse}
// @Router /api/v1/conversations/{id}/analytics [get]
func (h *ConversationHandler) GetConversationAnalytics(c *fiber.Ctx) error {
	analytics, err := h.conversationSvc.GetConversationAnalytics(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", analytics)
}

// @Summary Learning progression
// @Description The learner's trajectory across recent summarized sessions
// @Tags conversations
// @Produce json
// @Param email path string true "User email"
// @Success 200 {object} shared.Response{data=dto.LearningProgressionResponse}
// @Router /api/v1/conversations/user/{email}/progression [get]
func (h *ConversationHandler) GetLearningProgression(c *fiber.Ctx) error {
	progression, err := h.conversationSvc.GetUserLearningProgression(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", progression)
}

// @Summary Search conversations
// @Description Search the learner's transcripts by message content
// @Tags conversations
// @Produce json
// @Param email path string true "User email"
// @Param q query string true "Search query"
// @Success 200 {object} shared.Response{data=[]model.ConversationTranscript}
// @Router /api/v1/conversations/user/{email}/search [get]
func (h *ConversationHandler) SearchConversations(c *fiber.Ctx) error {
	transcripts, err := h.conversationSvc.SearchConversations(c.UserContext(), c.Params("email"), c.Query("q"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", transcripts)
}

// @Summary Delete conversation
// @Description Archive, when enabled, then remove the transcript and summary
// @Tags conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/conversations/{id} [delete]
func (h *ConversationHandler) DeleteConversation(c *fiber.Ctx) error {
	if err := h.conversationSvc.DeleteConversation(c.UserContext(), c.Params("id")); err != nil {
		return err
	}

	return shared.ResponseOK(c, "Conversation deleted", nil)
}
