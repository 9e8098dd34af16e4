package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/shared"
)

type EpisodeHandler struct {
	episodeSvc EpisodeServiceInterface
}

func NewEpisodeHandler(episodeSvc EpisodeServiceInterface) *EpisodeHandler {
	return &EpisodeHandler{episodeSvc: episodeSvc}
}

func parseSeasonEpisode(c *fiber.Ctx) (int, int, error) {
	season, err := strconv.Atoi(c.Params("season"))
	if err != nil {
		return 0, 0, shared.NewValidationError("season", c.Params("season"), "season must be an integer")
	}
	episode, err := strconv.Atoi(c.Params("episode"))
	if err != nil {
		return 0, 0, shared.NewValidationError("episode", c.Params("episode"), "episode must be an integer")
	}
	return season, episode, nil
}

// @Summary Create episode prompt
// @Description Create the prompt for a season/episode cell
// @Tags episodes
// @Accept json
// @Produce json
// @Param createRequest body dto.CreateEpisodeRequest true "Episode prompt"
// @Success 201 {object} shared.Response{data=model.EpisodePrompt}
// @Router /api/v1/episodes [post]
func (h *EpisodeHandler) CreateEpisode(c *fiber.Ctx) error {
	var req dto.CreateEpisodeRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}
	if err := dto.ValidateStruct(&req); err != nil {
		return err
	}

	ep, err := h.episodeSvc.CreateEpisodePrompt(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return shared.ResponseCreated(c, "Episode prompt created", ep)
}

// @Summary Get episode prompt
// @Tags episodes
// @Produce json
// @Param season path int true "Season"
// @Param episode path int true "Episode"
// @Success 200 {object} shared.Response{data=model.EpisodePrompt}
// @Router /api/v1/episodes/{season}/{episode} [get]
func (h *EpisodeHandler) GetEpisode(c *fiber.Ctx) error {
	season, episode, err := parseSeasonEpisode(c)
	if err != nil {
		return err
	}

	ep, err := h.episodeSvc.GetEpisodePrompt(c.UserContext(), season, episode)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", ep)
}

// @Summary Update episode prompt
// @Description Partially update an episode's content fields
// @Tags episodes
// @Accept json
// @Produce json
// @Param season path int true "Season"
// @Param episode path int true "Episode"
// @Param updates body map[string]interface{} true "Field updates"
// @Success 200 {object} shared.Response{data=model.EpisodePrompt}
// @Router /api/v1/episodes/{season}/{episode} [patch]
func (h *EpisodeHandler) UpdateEpisode(c *fiber.Ctx) error {
	season, episode, err := parseSeasonEpisode(c)
	if err != nil {
		return err
	}

	var updates map[string]interface{}
	if err := c.BodyParser(&updates); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	ep, err := h.episodeSvc.UpdateEpisodePrompt(c.UserContext(), season, episode, updates)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Episode prompt updated", ep)
}

// @Summary Record episode usage
// @Description Fold a finished session into the episode's aggregates
// @Tags episodes
// @Accept json
// @Produce json
// @Param season path int true "Season"
// @Param episode path int true "Episode"
// @Param usageRequest body dto.RecordUsageRequest true "Usage"
// @Success 200 {object} shared.Response{data=model.EpisodePrompt}
// @Router /api/v1/episodes/{season}/{episode}/usage [post]
func (h *EpisodeHandler) RecordUsage(c *fiber.Ctx) error {
	season, episode, err := parseSeasonEpisode(c)
	if err != nil {
		return err
	}

	var req dto.RecordUsageRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	ep, err := h.episodeSvc.RecordUsage(c.UserContext(), season, episode, &req)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Usage recorded", ep)
}

// @Summary List season episodes
// @Tags episodes
// @Produce json
// @Param season path int true "Season"
// @Success 200 {object} shared.Response{data=[]model.EpisodePrompt}
// @Router /api/v1/episodes/{season} [get]
func (h *EpisodeHandler) GetSeasonEpisodes(c *fiber.Ctx) error {
	season, err := strconv.Atoi(c.Params("season"))
	if err != nil {
		return shared.NewValidationError("season", c.Params("season"), "season must be an integer")
	}

	eps, err := h.episodeSvc.GetSeasonEpisodes(c.UserContext(), season)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", eps)
}

// @Summary List all episodes
// @Tags episodes
// @Produce json
// @Success 200 {object} shared.Response{data=[]model.EpisodePrompt}
// @Router /api/v1/episodes [get]
func (h *EpisodeHandler) ListEpisodes(c *fiber.Ctx) error {
	eps, err := h.episodeSvc.GetAllEpisodes(c.UserContext())
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", eps)
}

// @Summary Episode analytics
// @Tags episodes
// @Produce json
// @Param season path int true "Season"
// @Param episode path int true "Episode"
// @Success 200 {object} shared.Response{data=dto.EpisodeAnalyticsResponse}
// @Router /api/v1/episodes/{season}/{episode}/analytics [get]
func (h *EpisodeHandler) GetEpisodeAnalytics(c *fiber.Ctx) error {
	season, episode, err := parseSeasonEpisode(c)
	if err != nil {
		return err
	}

	analytics, err := h.episodeSvc.GetEpisodeAnalytics(c.UserContext(), season, episode)
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", analytics)
}

// @Summary Popular episodes
// @Description Episodes ranked by total uses
// @Tags episodes
// @Produce json
// @Param limit query int false "Max results" default(10)
// @Success 200 {object} shared.Response{data=[]model.EpisodePrompt}
// @Router /api/v1/episodes/popular [get]
func (h *EpisodeHandler) GetPopularEpisodes(c *fiber.Ctx) error {
	eps, err := h.episodeSvc.GetPopularEpisodes(c.UserContext(), parseLimit(c, 10))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", eps)
}

// @Summary Episodes by difficulty
// @Description Episodes tagged with a difficulty level, ordered by season and episode
// @Tags episodes
// @Produce json
// @Param level path string true "Difficulty level"
// @Success 200 {object} shared.Response{data=[]model.EpisodePrompt}
// @Router /api/v1/episodes/difficulty/{level} [get]
func (h *EpisodeHandler) GetEpisodesByDifficulty(c *fiber.Ctx) error {
	eps, err := h.episodeSvc.GetEpisodesByDifficulty(c.UserContext(), c.Params("level"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", eps)
}

// @Summary Episodes by age group
// @Description Episodes tagged with an age group, ordered by season and episode
// @Tags episodes
// @Produce json
// @Param group path string true "Age group"
// @Success 200 {object} shared.Response{data=[]model.EpisodePrompt}
// @Router /api/v1/episodes/age-group/{group} [get]
func (h *EpisodeHandler) GetEpisodesByAgeGroup(c *fiber.Ctx) error {
	eps, err := h.episodeSvc.GetEpisodesByAgeGroup(c.UserContext(), c.Params("group"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", eps)
}

// @Summary Search episodes
// @Description Case-insensitive search across titles, words, topics and objectives
// @Tags episodes
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} shared.Response{data=[]model.EpisodePrompt}
// @Router /api/v1/episodes/search [get]
func (h *EpisodeHandler) SearchEpisodes(c *fiber.Ctx) error {
	eps, err := h.episodeSvc.SearchEpisodes(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", eps)
}

// @Summary Episodes overview
// @Description Aggregate stats across the whole content grid
// @Tags episodes
// @Produce json
// @Success 200 {object} shared.Response{data=dto.EpisodesOverviewResponse}
// @Router /api/v1/episodes/overview [get]
func (h *EpisodeHandler) GetEpisodesOverview(c *fiber.Ctx) error {
	overview, err := h.episodeSvc.GetEpisodesOverview(c.UserContext())
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, "Success", overview)
}

// @Summary Delete episode prompt
// @Tags episodes
// @Produce json
// @Param season path int true "Season"
// @Param episode path int true "Episode"
// @Success 200 {object} shared.Response
// @Router /api/v1/episodes/{season}/{episode} [delete]
func (h *EpisodeHandler) DeleteEpisode(c *fiber.Ctx) error {
	season, episode, err := parseSeasonEpisode(c)
	if err != nil {
		return err
	}

	if err := h.episodeSvc.DeleteEpisodePrompt(c.UserContext(), season, episode); err != nil {
		return err
	}

	return shared.ResponseOK(c, "Episode prompt deleted", nil)
}
