package main

import (
	"github.com/danieldreier/flashdeck/internal/deck"
	"github.com/danieldreier/flashdeck/internal/fsrs"
	"github.com/danieldreier/flashdeck/internal/review"
	"github.com/danieldreier/flashdeck/internal/study"
)

// ErrorResponse is returned as tool text for every user-facing failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

type DeckResponse struct {
	Deck  string `json:"deck"`
	Cards int    `json:"cards"`
}

type DeckListResponse struct {
	Current string   `json:"current"`
	Decks   []string `json:"decks"`
}

type CardResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DeleteCardResponse struct {
	Removed bool   `json:"removed"`
	Message string `json:"message"`
}

type CardListResponse struct {
	Deck  string           `json:"deck"`
	Cards []study.CardInfo `json:"cards"`
}

type OptionsResponse struct {
	Deck         string            `json:"deck"`
	StudyOptions deck.StudyOptions `json:"study_options"`
}

// SessionResponse wraps the review view; Message explains why a request
// did not move the session.
type SessionResponse struct {
	Session review.View `json:"session"`
	Message string      `json:"message,omitempty"`
}

type ResultsResponse struct {
	Deck    string          `json:"deck"`
	Results []review.Result `json:"results"`
}

// StatsResponse combines the deck counts with the FSRS estimate.
type StatsResponse struct {
	Deck               string          `json:"deck"`
	Stats              deck.Stats      `json:"stats"`
	MeanRetrievability float64         `json:"mean_retrievability"`
	Forecast           []fsrs.Forecast `json:"forecast,omitempty"`
}
