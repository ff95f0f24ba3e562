package server

import (
	"unicornfarm/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest is the body of a new post. unicorn takes an id, a numeric
// string or an IRI such as "/api/unicorns/1".
type CreatePostRequest struct {
	Author  string      `json:"author" example:"Jane"`
	Message string      `json:"message" example:"Sparkle is the best unicorn ever!"`
	Unicorn *UnicornRef `json:"unicorn" swaggertype:"string" example:"/api/unicorns/1"`
}

// UpdatePostRequest is the body of a post update. Only the message can change.
type UpdatePostRequest struct {
	Message string `json:"message" example:"Still the best."`
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Tags posts
// @Produce json
// @Param unicorn query string false "Only posts about this unicorn (id or IRI)"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	in := service.ListPostsInput{Limit: page.Limit, Offset: page.Offset}

	if ref := c.Query("unicorn"); ref != "" {
		unicornID, err := parseUnicornRef(ref)
		if err != nil {
			return err
		}
		in.UnicornID = &unicornID
	}

	posts, err := s.postService.ListPosts(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Message
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Posts can only be attached to unicorns that have not been purchased.
// @Tags posts
// @Accept json
// @Produce json
// @Param request body CreatePostRequest true "Post"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req CreatePostRequest
	if err := decodeStrict(c.Body(), &req); err != nil {
		return err
	}

	in := service.CreatePostInput{Author: req.Author, Message: req.Message}
	if req.Unicorn != nil {
		in.UnicornID = req.Unicorn.ID
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PATCH /api/posts/:id
// @Summary Update a post message
// @Description The message must not contain characters that need HTML escaping.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body UpdatePostRequest true "New message"
// @Success 200 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdatePostRequest
	if err := decodeStrict(c.Body(), &req); err != nil {
		return err
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		PostID:  id,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.postService.DeletePost(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
