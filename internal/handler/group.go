package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"postcircle/internal/httputil"
	"postcircle/internal/model"
	"postcircle/internal/service"
)

type GroupHandler struct {
	userService  *service.UserService
	groupService *service.GroupService
}

func NewGroupHandler(userService *service.UserService, groupService *service.GroupService) *GroupHandler {
	return &GroupHandler{
		userService:  userService,
		groupService: groupService,
	}
}

// groupIDFromPath parses the {groupID} segment. A non-numeric id cannot
// name any group, so the failure reads as not-found.
func groupIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "groupID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.WriteInvalidFields(w, http.StatusNotFound, "id")
		return 0, false
	}
	return id, true
}

// writeGroupError maps group service failures onto the response contract.
// name is the attempted group name, used for the name-in-use body.
func (h *GroupHandler) writeGroupError(w http.ResponseWriter, err error, name string) {
	var unknown *model.UnknownUsernameError
	switch {
	case errors.As(err, &unknown):
		httputil.WriteUnknownUsername(w, unknown.Username)
	case errors.Is(err, model.ErrMissingUsername):
		httputil.WriteMissingFields(w, http.StatusBadRequest, "username")
	case errors.Is(err, model.ErrGroupNameMissing):
		httputil.WriteMissingFields(w, http.StatusForbidden, "name")
	case errors.Is(err, model.ErrGroupNameInUse):
		httputil.WriteNameInUse(w, name)
	case errors.Is(err, model.ErrGroupNameTooLong):
		httputil.WriteInvalidFields(w, http.StatusBadRequest, "name")
	case errors.Is(err, model.ErrGroupNotFound):
		httputil.WriteNotFound(w, "Group not found")
	default:
		log.Printf("[ERROR] Group handler: %v", err)
		httputil.WriteInternalError(w, "Group operation failed")
	}
}

// List returns all friend groups owned by the path user.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}

	expandMembers := r.URL.Query().Get("expand") == "members"
	groups, err := h.groupService.List(r.Context(), user.ID, expandMembers)
	if err != nil {
		log.Printf("[ERROR] List groups handler: %v", err)
		httputil.WriteInternalError(w, "Failed to list groups")
		return
	}
	if groups == nil {
		groups = []model.FriendGroup{}
	}

	httputil.WriteJSON(w, http.StatusOK, groups)
}

// Create makes a new friend group for the path user, optionally seeding
// its membership.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}

	var req model.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	group, err := h.groupService.Create(r.Context(), user.ID, req.Name, req.Members)
	if err != nil {
		h.writeGroupError(w, err, req.Name)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, group)
}

// Get returns one group with its members expanded.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	group, err := h.groupService.Get(r.Context(), user.ID, groupID)
	if err != nil {
		h.writeGroupError(w, err, "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, group)
}

// Update renames a group and/or reconciles its membership. Omitting the
// members key leaves membership untouched.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	var req model.UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	group, err := h.groupService.Update(r.Context(), user.ID, groupID, &req)
	if err != nil {
		h.writeGroupError(w, err, name)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, group)
}

// Delete removes a group and its membership rows.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Delete(r.Context(), user.ID, groupID); err != nil {
		h.writeGroupError(w, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Members lists a group's membership in insertion order.
func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	members, err := h.groupService.Members(r.Context(), user.ID, groupID)
	if err != nil {
		h.writeGroupError(w, err, "")
		return
	}
	if members == nil {
		members = []model.UserSummary{}
	}

	httputil.WriteJSON(w, http.StatusOK, members)
}

// ReconcileMembers replaces a group's membership with the requested set.
func (h *GroupHandler) ReconcileMembers(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	var req model.ReconcileMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	members, err := h.groupService.ReconcileMembers(r.Context(), user.ID, groupID, req.Usernames)
	if err != nil {
		h.writeGroupError(w, err, "")
		return
	}
	if members == nil {
		members = []model.UserSummary{}
	}

	httputil.WriteJSON(w, http.StatusOK, members)
}

// AddMember adds a single user to the group. Re-adding an existing
// member succeeds without effect.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "memberUsername")
	member, err := h.groupService.AddMember(r.Context(), user.ID, groupID, username)
	if err != nil {
		h.writeGroupError(w, err, "")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, member)
}

// RemoveMember removes a single user from the group. Removing an absent
// member still returns 204.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, _, ok := resolvePathUser(w, r, h.userService, service.Owner)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	username := chi.URLParam(r, "memberUsername")
	if err := h.groupService.RemoveMember(r.Context(), user.ID, groupID, username); err != nil {
		h.writeGroupError(w, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
