package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/catalog"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
)

// HandleCatalog handles GET /v1/catalog?q=&category=&status=.
// category and status may repeat or hold comma-separated values.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	q, err := parseCatalogQuery(r)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}

	agents, err := h.directory.Search(r.Context(), q)
	if err != nil {
		h.writeDirectoryError(w, r, err)
		return
	}
	if agents == nil {
		agents = []model.AgentRecord{}
	}
	writeJSON(w, r, http.StatusOK, model.CatalogResponse{
		Agents: agents,
		Total:  len(agents),
		Query:  q.Text,
	})
}

// HandleFacets handles GET /v1/catalog/facets.
func (h *Handlers) HandleFacets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, model.FacetsResponse{
		Categories: model.Categories(),
		Statuses:   model.Statuses(),
	})
}

func parseCatalogQuery(r *http.Request) (catalog.Query, error) {
	values := r.URL.Query()
	q := catalog.Query{Text: strings.TrimSpace(values.Get("q"))}

	for _, c := range splitMulti(values["category"]) {
		cat := model.Category(c)
		if !cat.Valid() {
			return catalog.Query{}, &model.ValidationError{Fields: []string{"category"}, Message: "unknown category " + strconv.Quote(c)}
		}
		q.Categories = append(q.Categories, cat)
	}
	for _, s := range splitMulti(values["status"]) {
		st := model.Status(s)
		if !st.Valid() {
			return catalog.Query{}, &model.ValidationError{Fields: []string{"status"}, Message: "unknown status " + strconv.Quote(s)}
		}
		q.Statuses = append(q.Statuses, st)
	}
	return q, nil
}

// splitMulti flattens repeated and comma-separated query values. "All" is
// the gallery's no-filter option and is dropped.
func splitMulti(raw []string) []string {
	var out []string
	for _, v := range raw {
		for part := range strings.SplitSeq(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" || part == "All" {
				continue
			}
			out = append(out, part)
		}
	}
	return out
}
