package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/matst80/slask-gallery/pkg/common"
	"github.com/matst80/slask-gallery/pkg/listing"
	"github.com/matst80/slask-gallery/pkg/types"
)

// ListingServer exposes the artwork listing over http, both as stateless
// token paging and as server held sessions.
type ListingServer struct {
	Loader       *listing.Loader
	Sessions     *SessionStore
	Tracking     types.Tracking
	MaxAutoPages int
	// PageSize is used when the request has no size.
	PageSize int
}

func NewListingServer(loader *listing.Loader, trk types.Tracking) *ListingServer {
	return &ListingServer{
		Loader:       loader,
		Sessions:     NewSessionStore(DefaultSessionTTL),
		Tracking:     trk,
		MaxAutoPages: listing.DefaultMaxAutoPages,
	}
}

type ListingResponse struct {
	Items       []types.Artwork `json:"items"`
	Source      types.Source    `json:"source"`
	HasNextPage bool            `json:"hasNextPage"`
	Token       string          `json:"token,omitempty"`
}

type SessionResponse struct {
	Id string `json:"id"`
	listing.Snapshot
}

func (ws *ListingServer) listingRequest(r *http.Request) (*types.ListingRequest, error) {
	req, err := types.GetListingRequest(r)
	if err != nil {
		return nil, badRequest(err)
	}
	if ws.PageSize > 0 && !r.URL.Query().Has("size") {
		req.PageSize = min(ws.PageSize, types.MaxPageSize)
	}
	return req, nil
}

func badRequest(err error) error {
	return common.NewHttpError(http.StatusBadRequest, err)
}

func upstreamError(err error) error {
	return common.NewHttpError(http.StatusBadGateway, err)
}

func (ws *ListingServer) track(sessionId string, event types.ListingEvent) {
	if ws.Tracking != nil {
		ws.Tracking.TrackListing(sessionId, event)
	}
}

// Listing serves one page for the filters in the query. Without a token the
// curated stage is returned, the token in the response resumes paging.
func (ws *ListingServer) Listing(w http.ResponseWriter, r *http.Request, sessionId string) error {
	req, err := ws.listingRequest(r)
	if err != nil {
		return err
	}
	param, err := types.DecodeToken(req.Token)
	if err != nil {
		return badRequest(err)
	}
	res, err := ws.Loader.LoadPage(r.Context(), param, req.FilterState, req.PageSize, req.SortOption())
	if err != nil {
		if errors.Is(err, types.ErrInvalidToken) {
			return badRequest(err)
		}
		return upstreamError(err)
	}
	resp := ListingResponse{
		Items:       listing.Process([]types.PageResult{*res}, req.FilterState, req.SortOption()),
		Source:      res.Source,
		HasNextPage: res.HasNextPage,
	}
	if next, ok := res.NextParam(); ok {
		if resp.Token, err = next.EncodeToken(); err != nil {
			return err
		}
	}
	ws.track(sessionId, types.ListingEvent{
		Filters:     req.FilterState,
		Sort:        req.SortOption(),
		Source:      res.Source,
		Delivered:   len(res.Items),
		Visible:     len(resp.Items),
		HasNextPage: res.HasNextPage,
	})
	w.Header().Set("Cache-Control", "private, max-age=30")
	return common.WriteJson(w, http.StatusOK, resp)
}

func (ws *ListingServer) session(r *http.Request) (string, *listing.Listing, error) {
	id := r.PathValue("id")
	l, ok := ws.Sessions.Get(id)
	if !ok {
		return id, nil, common.NewHttpError(http.StatusNotFound, fmt.Errorf("session %s not found", id))
	}
	return id, l, nil
}

func writeSession(w http.ResponseWriter, status int, id string, l *listing.Listing) error {
	return common.WriteJson(w, status, SessionResponse{Id: id, Snapshot: l.Snapshot()})
}

func (ws *ListingServer) CreateSession(w http.ResponseWriter, r *http.Request, sessionId string) error {
	req, err := ws.listingRequest(r)
	if err != nil {
		return err
	}
	opts := listing.DefaultOptions()
	opts.PageSize = req.PageSize
	opts.Sort = req.SortOption()
	opts.MaxAutoPages = ws.MaxAutoPages
	opts.OnPage = func(e types.ListingEvent) {
		ws.track(sessionId, e)
	}
	l := listing.New(ws.Loader, req.FilterState, opts)
	if err = l.Load(r.Context()); err != nil {
		return upstreamError(err)
	}
	id := ws.Sessions.Create(l)
	return writeSession(w, http.StatusCreated, id, l)
}

func (ws *ListingServer) GetSession(w http.ResponseWriter, r *http.Request, sessionId string) error {
	id, l, err := ws.session(r)
	if err != nil {
		return err
	}
	return writeSession(w, http.StatusOK, id, l)
}

func (ws *ListingServer) NextPage(w http.ResponseWriter, r *http.Request, sessionId string) error {
	id, l, err := ws.session(r)
	if err != nil {
		return err
	}
	if _, err = l.FetchNextPage(r.Context()); err != nil {
		if errors.Is(err, listing.ErrNotLoaded) {
			return common.NewHttpError(http.StatusConflict, err)
		}
		return upstreamError(err)
	}
	return writeSession(w, http.StatusOK, id, l)
}

func (ws *ListingServer) UpdateFilters(w http.ResponseWriter, r *http.Request, sessionId string) error {
	id, l, err := ws.session(r)
	if err != nil {
		return err
	}
	filters, err := types.FilterStateFromQuery(r.URL.Query())
	if err != nil {
		return badRequest(err)
	}
	if err = l.SetFilters(r.Context(), filters); err != nil {
		return upstreamError(err)
	}
	return writeSession(w, http.StatusOK, id, l)
}

func (ws *ListingServer) UpdateSort(w http.ResponseWriter, r *http.Request, sessionId string) error {
	id, l, err := ws.session(r)
	if err != nil {
		return err
	}
	l.SetSort(types.ParseSortOption(r.URL.Query().Get("sort")))
	return writeSession(w, http.StatusOK, id, l)
}

func (ws *ListingServer) DeleteSession(w http.ResponseWriter, r *http.Request, sessionId string) error {
	id := r.PathValue("id")
	if !ws.Sessions.Delete(id) {
		return common.NewHttpError(http.StatusNotFound, fmt.Errorf("session %s not found", id))
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (ws *ListingServer) Handle() *http.ServeMux {
	srv := http.NewServeMux()
	route := func(pattern, name string, fn func(w http.ResponseWriter, r *http.Request, sessionId string) error) {
		srv.Handle(pattern, instrument(name, common.JsonHandler(ws.Tracking, fn)))
	}
	route("GET /api/listing", "listing", ws.Listing)
	route("POST /api/sessions", "create_session", ws.CreateSession)
	route("GET /api/sessions/{id}", "get_session", ws.GetSession)
	route("POST /api/sessions/{id}/next", "next_page", ws.NextPage)
	route("PUT /api/sessions/{id}/filters", "update_filters", ws.UpdateFilters)
	route("PUT /api/sessions/{id}/sort", "update_sort", ws.UpdateSort)
	route("DELETE /api/sessions/{id}", "delete_session", ws.DeleteSession)
	srv.HandleFunc("OPTIONS /api/", common.RespondToOptions)
	return srv
}
