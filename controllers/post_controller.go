package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"kblog/middleware"
	"kblog/models"
	"kblog/services"
	"kblog/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const postNotFoundMessage = "Post not found or not authorized"

type PostController struct {
	postService *services.PostService
	log         *logrus.Logger
}

func NewPostController(postService *services.PostService, log *logrus.Logger) *PostController {
	return &PostController{postService: postService, log: log}
}

type PostEnvelope struct {
	Message string              `json:"message"`
	Post    models.PostResponse `json:"post"`
}

// postID parses the :id path parameter. Anything that is not a positive
// integer cannot name a post, so it is reported as not found.
func postID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		abortWithError(c, http.StatusNotFound, postNotFoundMessage)
		return 0, false
	}
	return uint(id), true
}

func (pc *PostController) currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "User not authenticated")
	}
	return userID, ok
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.CreatePostRequest true "Post"
// @Success 201 {object} PostEnvelope
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /posts [post]
func (pc *PostController) CreatePost(c *gin.Context) {
	userID, ok := pc.currentUser(c)
	if !ok {
		return
	}

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithBindError(c, err, "Missing required fields: title or content", "Invalid post fields")
		return
	}

	post, err := pc.postService.Create(c.Request.Context(), userID, req.Title, req.Content)
	switch {
	case errors.Is(err, services.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrUserNotFound):
		abortWithError(c, http.StatusUnauthorized, "User not found")
		return
	case err != nil:
		internalError(c, pc.log, "Failed to create post", err)
		return
	}

	c.JSON(http.StatusCreated, PostEnvelope{
		Message: "Post created successfully!",
		Post:    post.Response(),
	})
}

// GetPosts godoc
// @Summary List the caller's posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PostResponse
// @Failure 401 {object} ErrorResponse
// @Router /posts [get]
func (pc *PostController) GetPosts(c *gin.Context) {
	userID, ok := pc.currentUser(c)
	if !ok {
		return
	}

	posts, err := pc.postService.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		internalError(c, pc.log, "Failed to fetch posts", err)
		return
	}

	c.JSON(http.StatusOK, models.PostResponses(posts))
}

// UpdatePost godoc
// @Summary Update one of the caller's posts
// @Description Only the fields present in the body are changed.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param body body models.UpdatePostRequest true "Fields to change"
// @Success 200 {object} PostEnvelope
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [put]
func (pc *PostController) UpdatePost(c *gin.Context) {
	userID, ok := pc.currentUser(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}

	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithDetails(c, http.StatusBadRequest, "Invalid request body", utils.ValidationDetails(err))
		return
	}

	post, err := pc.postService.Update(c.Request.Context(), id, userID, &req)
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		abortWithError(c, http.StatusNotFound, postNotFoundMessage)
		return
	case errors.Is(err, services.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		internalError(c, pc.log, "Failed to update post", err)
		return
	}

	c.JSON(http.StatusOK, PostEnvelope{
		Message: "Post updated successfully!",
		Post:    post.Response(),
	})
}

// DeletePost godoc
// @Summary Delete one of the caller's posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [delete]
func (pc *PostController) DeletePost(c *gin.Context) {
	userID, ok := pc.currentUser(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}

	err := pc.postService.Delete(c.Request.Context(), id, userID)
	if errors.Is(err, services.ErrPostNotFound) {
		abortWithError(c, http.StatusNotFound, postNotFoundMessage)
		return
	}
	if err != nil {
		internalError(c, pc.log, "Failed to delete post", err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Post deleted successfully!"})
}
