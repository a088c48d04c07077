package controllers

import (
	"net/http"

	"kblog/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
}

func abortWithDetails(c *gin.Context, status int, message string, details map[string]string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Details: details})
}

// abortWithBindError picks missingMsg when any field is absent and
// invalidMsg when every field is present but fails a constraint.
func abortWithBindError(c *gin.Context, err error, missingMsg, invalidMsg string) {
	message := invalidMsg
	if utils.HasMissingFields(err) {
		message = missingMsg
	}
	abortWithDetails(c, http.StatusBadRequest, message, utils.ValidationDetails(err))
}

func internalError(c *gin.Context, log *logrus.Logger, message string, err error) {
	log.WithError(err).WithField("request_id", c.GetString("request_id")).Error(message)
	abortWithError(c, http.StatusInternalServerError, message)
}
