package appErrors

import (
	"fmt"
	"time"
)

// ErrCampaignNotFound is returned when no campaign has the given ID.
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrImportNotFound is returned for an unknown import session.
type ErrImportNotFound struct {
	ImportID string
}

func (e *ErrImportNotFound) Error() string {
	return fmt.Sprintf("import %q not found", e.ImportID)
}

func NewImportNotFound(id string) error {
	return &ErrImportNotFound{ImportID: id}
}

// InvalidNameError rejects an empty or whitespace-only list name.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid list name %q", e.Name)
}

func NewInvalidName(name string) error {
	return &InvalidNameError{Name: name}
}

// EmptyListError means the campaign list is missing or has no contacts.
type EmptyListError struct {
	ListName string
}

func (e *EmptyListError) Error() string {
	return fmt.Sprintf("list %q does not exist or has no contacts", e.ListName)
}

func NewEmptyList(name string) error {
	return &EmptyListError{ListName: name}
}

// InvalidWindowError means the window starts after it ends.
type InvalidWindowError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("window start %s is after end %s", e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

func NewInvalidWindow(start, end time.Time) error {
	return &InvalidWindowError{Start: start, End: end}
}

// WindowExpiredError is returned by start when the window already closed.
type WindowExpiredError struct {
	CampaignID int
	End        time.Time
}

func (e *WindowExpiredError) Error() string {
	return fmt.Sprintf("campaign %d window closed at %s", e.CampaignID, e.End.Format(time.RFC3339))
}

func NewWindowExpired(id int, end time.Time) error {
	return &WindowExpiredError{CampaignID: id, End: end}
}

// AlreadyRunningError forbids a second pacing loop for one campaign.
type AlreadyRunningError struct {
	CampaignID int
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("campaign %d is already running", e.CampaignID)
}

func NewAlreadyRunning(id int) error {
	return &AlreadyRunningError{CampaignID: id}
}

// InvalidTransitionError rejects an operation not allowed from the current state.
type InvalidTransitionError struct {
	CampaignID int
	Op         string
	From       string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s campaign %d in state %s", e.Op, e.CampaignID, e.From)
}

func NewInvalidTransition(id int, op, from string) error {
	return &InvalidTransitionError{CampaignID: id, Op: op, From: from}
}
