package httpserver

import (
	"net/http"

	"chatd/internal/service"
)

// handleListUsers returns every user except the caller, for the sidebar.
func handleListUsers(userSvc *service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUser := CurrentUser(r)
		if currentUser == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}

		users, err := userSvc.ListOthers(r.Context(), currentUser.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		res := make([]userResponse, 0, len(users))
		for _, u := range users {
			res = append(res, userResponse{
				ID:         u.ID,
				FullName:   u.FullName,
				Username:   u.Username,
				ProfilePic: u.ProfilePic,
				Gender:     u.Gender,
			})
		}
		writeJSON(w, http.StatusOK, res)
	}
}
