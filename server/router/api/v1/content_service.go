package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stridecoach/stride/store"
)

type contentResponse struct {
	ID          int32  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
	Tags        string `json:"tags"`
	IsActive    bool   `json:"is_active"`
	CreatedTs   int64  `json:"created_ts"`
	UpdatedTs   int64  `json:"updated_ts"`
}

func convertContentFromStore(content *store.Content) *contentResponse {
	return &contentResponse{
		ID:          content.ID,
		Type:        content.Type,
		Title:       content.Title,
		Description: content.Description,
		Body:        content.Body,
		Tags:        content.Tags,
		IsActive:    content.IsActive,
		CreatedTs:   content.CreatedTs,
		UpdatedTs:   content.UpdatedTs,
	}
}

// ListContents returns editorial content, optionally filtered by type.
func (s *APIV1Service) ListContents(c echo.Context) error {
	find := &store.FindContent{}
	if v := c.QueryParam("type"); v != "" {
		find.Type = &v
	}
	if v := c.QueryParam("is_active"); v != "" {
		active := v == "true"
		find.IsActive = &active
	}
	applyPagination(c, &find.Limit, &find.Offset)

	contents, err := s.Store.ListContents(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list contents")
	}

	response := make([]*contentResponse, 0, len(contents))
	for _, content := range contents {
		response = append(response, convertContentFromStore(content))
	}
	return c.JSON(http.StatusOK, response)
}

type createContentRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Body        string `json:"body"`
	Tags        string `json:"tags"`
}

// CreateContent adds a new editorial piece.
func (s *APIV1Service) CreateContent(c echo.Context) error {
	request := &createContentRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	content, err := s.Store.CreateContent(c.Request().Context(), &store.CreateContent{
		Type:        request.Type,
		Title:       request.Title,
		Description: request.Description,
		Body:        request.Body,
		Tags:        request.Tags,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create content")
	}
	return c.JSON(http.StatusCreated, convertContentFromStore(content))
}

type updateContentRequest struct {
	Type        *string `json:"type"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Body        *string `json:"body"`
	Tags        *string `json:"tags"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateContent patches an editorial piece.
func (s *APIV1Service) UpdateContent(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	request := &updateContentRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	content, err := s.Store.UpdateContent(c.Request().Context(), &store.UpdateContent{
		ID:          id,
		Type:        request.Type,
		Title:       request.Title,
		Description: request.Description,
		Body:        request.Body,
		Tags:        request.Tags,
		IsActive:    request.IsActive,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update content")
	}
	return c.JSON(http.StatusOK, convertContentFromStore(content))
}

// DeleteContent removes an editorial piece.
func (s *APIV1Service) DeleteContent(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteContent(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete content")
	}
	return c.NoContent(http.StatusNoContent)
}

type templateResponse struct {
	ID        int32  `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	Variables string `json:"variables"`
	UpdatedTs int64  `json:"updated_ts"`
}

// ListMessageTemplates returns the outbound message templates.
func (s *APIV1Service) ListMessageTemplates(c echo.Context) error {
	templates, err := s.Store.ListMessageTemplates(c.Request().Context(), &store.FindMessageTemplate{})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list templates")
	}

	response := make([]*templateResponse, 0, len(templates))
	for _, template := range templates {
		response = append(response, &templateResponse{
			ID:        template.ID,
			Key:       template.Key,
			Name:      template.Name,
			Body:      template.Body,
			Variables: template.Variables,
			UpdatedTs: template.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}

type upsertTemplateRequest struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	Variables string `json:"variables"`
}

// UpsertMessageTemplate creates or replaces a template by key.
func (s *APIV1Service) UpsertMessageTemplate(c echo.Context) error {
	request := &upsertTemplateRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Key == "" || request.Body == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "key and body are required")
	}

	template, err := s.Store.UpsertMessageTemplate(c.Request().Context(), &store.UpsertMessageTemplate{
		Key:       request.Key,
		Name:      request.Name,
		Body:      request.Body,
		Variables: request.Variables,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to upsert template")
	}
	return c.JSON(http.StatusOK, &templateResponse{
		ID:        template.ID,
		Key:       template.Key,
		Name:      template.Name,
		Body:      template.Body,
		Variables: template.Variables,
		UpdatedTs: template.UpdatedTs,
	})
}

// DeleteMessageTemplate removes a template.
func (s *APIV1Service) DeleteMessageTemplate(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}
	if err := s.Store.DeleteMessageTemplate(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete template")
	}
	return c.NoContent(http.StatusNoContent)
}

func parseIDParam(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return int32(id), nil
}
