package handlers

import (
  "github.com/gin-gonic/gin"
)

type errorBody struct {
  Success bool     `json:"success"`
  Error   string   `json:"error"`
  Message string   `json:"message"`
  Details []string `json:"details,omitempty"`
}

func RespondError(c *gin.Context, status int, kind, message string, details ...string) {
  c.JSON(status, errorBody{
    Success: false,
    Error:   kind,
    Message: message,
    Details: details,
  })
}

func RespondOK(c *gin.Context, status int, payload gin.H) {
  c.JSON(status, payload)
}
