package api

import (
	"context"
	"fmt"

	"ticketly-client/internal/models"
)

type EventsAPI struct {
	client *Client
}

func NewEventsAPI(client *Client) *EventsAPI {
	return &EventsAPI{client: client}
}

func (e *EventsAPI) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := e.client.Get(ctx, "/events", &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (e *EventsAPI) Get(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	if err := e.client.Get(ctx, fmt.Sprintf("/events/%d", id), &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (e *EventsAPI) Create(ctx context.Context, req models.EventRequest) (*models.Event, error) {
	var event models.Event
	if err := e.client.Post(ctx, "/events", req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (e *EventsAPI) Update(ctx context.Context, id int64, req models.EventRequest) (*models.Event, error) {
	var event models.Event
	if err := e.client.Put(ctx, fmt.Sprintf("/events/%d", id), req, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (e *EventsAPI) Delete(ctx context.Context, id int64) error {
	return e.client.Delete(ctx, fmt.Sprintf("/events/%d", id))
}
