package dto

import (
	"notebook-widget-be/pkg/citation"
)

type SendChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type ExtractCitationsRequest struct {
	Text string `json:"text" validate:"required"`
}

type ExtractCitationsResponse struct {
	Text       string               `json:"text"`
	References []citation.Reference `json:"references"`
}
