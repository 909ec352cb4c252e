package v1

import (
	"encoding/json"
	"net/http"
)

// listUsers handles GET /users.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toUserResponses(users))
}

// getUser handles GET /users/{id}.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := s.users.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toUserResponse(u))
}

// postUser handles POST /users.
func (s *Server) postUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	created, err := s.users.Create(r.Context(), toUserDomain(req))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toUserResponse(created))
}

// putUser handles PUT /users. The body must carry the id of an existing user.
func (s *Server) putUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return
	}
	updated, err := s.users.Update(r.Context(), toUserDomain(req))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toUserResponse(updated))
}

// addFriend handles PUT /users/{id}/friends/{friendID}.
func (s *Server) addFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendID")
	if !ok {
		return
	}
	if err := s.users.AddFriend(r.Context(), userID, friendID); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// removeFriend handles DELETE /users/{id}/friends/{friendID}.
func (s *Server) removeFriend(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	friendID, ok := pathID(w, r, "friendID")
	if !ok {
		return
	}
	if err := s.users.RemoveFriend(r.Context(), userID, friendID); err != nil {
		s.respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listFriends handles GET /users/{id}/friends.
func (s *Server) listFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	friends, err := s.users.Friends(r.Context(), userID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toUserResponses(friends))
}

// commonFriends handles GET /users/{id}/friends/common/{otherID}.
func (s *Server) commonFriends(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	otherID, ok := pathID(w, r, "otherID")
	if !ok {
		return
	}
	common, err := s.users.CommonFriends(r.Context(), userID, otherID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toUserResponses(common))
}
