package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"postcircle/internal/httputil"
	"postcircle/internal/model"
	"postcircle/internal/service"
	"postcircle/internal/transport/http/middleware"
)

type UserHandler struct {
	userService   *service.UserService
	followService *service.FollowService
	groupService  *service.GroupService
}

func NewUserHandler(
	userService *service.UserService,
	followService *service.FollowService,
	groupService *service.GroupService,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		followService: followService,
		groupService:  groupService,
	}
}

// UserDetail is the assembled user response. The optional sections appear
// only when the caller asked for them through the expand parameter; each
// is a fixed capability, not a reflected field name.
type UserDetail struct {
	ID        int64                `json:"id"`
	Username  string               `json:"username"`
	Profile   *model.Profile       `json:"profile,omitempty"`
	Followers *[]model.UserSummary `json:"followers,omitempty"`
	Following *[]model.UserSummary `json:"following,omitempty"`
}

// CurrentUser is the /me response shape.
type CurrentUser struct {
	ID       int64               `json:"id"`
	Username string              `json:"username"`
	Email    string              `json:"email"`
	Profile  *model.Profile      `json:"profile"`
	Groups   []model.FriendGroup `json:"groups"`
}

// expandSet is the capability set a caller may request on a user resource.
type expandSet struct {
	profile   bool
	followers bool
	following bool
}

func parseExpand(r *http.Request) expandSet {
	var set expandSet
	raw := r.URL.Query().Get("expand")
	if raw == "" {
		return set
	}
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(part) {
		case "profile":
			set.profile = true
		case "followers":
			set.followers = true
		case "following":
			set.following = true
		}
	}
	return set
}

// Me lists information related to the current user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Me handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load current user")
		return
	}

	profile, err := h.userService.GetProfile(r.Context(), user.ID)
	if err != nil {
		log.Printf("[ERROR] Me handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load profile")
		return
	}

	groups, err := h.groupService.List(r.Context(), user.ID, false)
	if err != nil {
		log.Printf("[ERROR] Me handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load groups")
		return
	}
	if groups == nil {
		groups = []model.FriendGroup{}
	}

	httputil.WriteJSON(w, http.StatusOK, CurrentUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Profile:  profile,
		Groups:   groups,
	})
}

// GetUser returns a user with the requested expansions. Read access to
// any resolvable user is universal; no ownership check applies.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.ReadOnly)
	if !ok {
		return
	}

	detail, err := h.assembleDetail(r, user, parseExpand(r))
	if err != nil {
		log.Printf("[ERROR] GetUser handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, detail)
}

// UpdateUser applies a partial update to the path user; callers may only
// update themselves.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.userService.Update(r.Context(), user, &req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrMissingUsername):
			httputil.WriteMissingFields(w, http.StatusBadRequest, "username")
		case errors.Is(err, model.ErrUsernameExists):
			httputil.WriteInvalidFields(w, http.StatusBadRequest, "username")
		default:
			log.Printf("[ERROR] UpdateUser handler: %v", err)
			httputil.WriteInternalError(w, "Failed to update user")
		}
		return
	}

	detail, err := h.assembleDetail(r, updated, parseExpand(r))
	if err != nil {
		log.Printf("[ERROR] UpdateUser handler: %v", err)
		httputil.WriteInternalError(w, "Failed to load user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, detail)
}

// assembleDetail builds the projected response for one user.
func (h *UserHandler) assembleDetail(r *http.Request, user *model.User, expand expandSet) (*UserDetail, error) {
	detail := &UserDetail{
		ID:       user.ID,
		Username: user.Username,
	}

	if expand.profile {
		profile, err := h.userService.GetProfile(r.Context(), user.ID)
		if err != nil {
			return nil, err
		}
		detail.Profile = profile
	}

	if expand.followers {
		followers, err := h.followService.ListFollowers(r.Context(), user, model.UsernameFilter{})
		if err != nil {
			return nil, err
		}
		if followers == nil {
			followers = []model.UserSummary{}
		}
		detail.Followers = &followers
	}

	if expand.following {
		following, err := h.followService.ListFollowing(r.Context(), user, model.UsernameFilter{})
		if err != nil {
			return nil, err
		}
		if following == nil {
			following = []model.UserSummary{}
		}
		detail.Following = &following
	}

	return detail, nil
}
