package model

import "time"

// UploadResponse acknowledges a successful upload.
type UploadResponse struct {
	JobID  string `json:"job_id"`
	Status Status `json:"status"`
}

// StatusResponse is the client-facing projection returned by the status
// endpoint. Optional fields marshal as explicit null when unset.
type StatusResponse struct {
	JobID        string    `json:"job_id"`
	Status       Status    `json:"status"`
	Filename     string    `json:"filename"`
	CreatedAt    time.Time `json:"created_at"`
	ErrorMessage *string   `json:"error_message"`
}

// ResultResponse is the client-facing projection returned by the result
// endpoint.
type ResultResponse struct {
	JobID         string  `json:"job_id"`
	Status        Status  `json:"status"`
	Transcription *string `json:"transcription"`
	Summary       *string `json:"summary"`
	ErrorMessage  *string `json:"error_message"`
}

// NewStatusResponse projects a job record into a status snapshot.
func NewStatusResponse(j *Job) StatusResponse {
	return StatusResponse{
		JobID:        j.ID,
		Status:       j.Status,
		Filename:     j.Filename,
		CreatedAt:    j.CreatedAt,
		ErrorMessage: j.ErrorMessage,
	}
}

// NewResultResponse projects a job record into a result snapshot.
func NewResultResponse(j *Job) ResultResponse {
	return ResultResponse{
		JobID:         j.ID,
		Status:        j.Status,
		Transcription: j.Transcription,
		Summary:       j.Summary,
		ErrorMessage:  j.ErrorMessage,
	}
}
