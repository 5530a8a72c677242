package restapi

import (
	"net/http"

	"busroot.app/internal/models"
	"busroot.app/internal/utils"
)

func (api *RestAPI) submitFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var feedback models.Feedback
	if fieldErrors := readJSON(w, r, &feedback); fieldErrors != nil {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	feedback.Name = utils.SanitizeInput(feedback.Name)
	feedback.FeedbackText = utils.SanitizeInput(feedback.FeedbackText)

	saved, err := api.Fleet.SubmitFeedback(r.Context(), feedback)
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewCreatedResponse(saved))
}

func (api *RestAPI) listFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	feedback, err := api.Fleet.ListFeedback(r.Context())
	if err != nil {
		api.handleError(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(feedback))
}
