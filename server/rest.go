// Copyright 2024 Anime Recommendation System Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"fmt"
	"net/http"
	"strconv"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/log"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/config"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/logics"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/metadata"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/search"
)

var apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "anime_rec_api_requests_total",
	Help: "Number of API requests by route and status code.",
}, []string{"route", "status"})

// RestServer exposes the recommender over a REST-ful API. All state behind
// it is immutable after startup, so handlers run without locking.
type RestServer struct {
	Recommender *logics.Recommender
	SearchIndex *search.Index
	Config      *config.Config
	WebService  *restful.WebService

	cache *ttlcache.Cache[string, *logics.Result]
}

// NewRestServer creates a REST server over a fully loaded recommender.
func NewRestServer(recommender *logics.Recommender, searchIndex *search.Index, conf *config.Config) *RestServer {
	s := &RestServer{
		Recommender: recommender,
		SearchIndex: searchIndex,
		Config:      conf,
		WebService:  new(restful.WebService),
		cache: ttlcache.New[string, *logics.Result](
			ttlcache.WithTTL[string, *logics.Result](conf.Server.CacheTTL),
			ttlcache.WithCapacity[string, *logics.Result](uint64(conf.Server.CacheEntries)),
		),
	}
	s.CreateWebService()
	return s
}

// StartHttpServer starts the REST-ful API server.
func (s *RestServer) StartHttpServer() {
	go s.cache.Start()
	restful.DefaultContainer.Add(s.WebService)
	specConfig := restfulspec.Config{
		WebServices: restful.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}
	restful.DefaultContainer.Add(restfulspec.NewOpenAPIService(specConfig))
	http.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%d", s.Config.Server.HTTPHost, s.Config.Server.HTTPPort)
	log.Logger().Info("start http server", zap.String("url", "http://"+addr))
	log.Logger().Fatal("failed to start http server",
		zap.Error(http.ListenAndServe(addr, nil)))
}

func LogFilter(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	chain.ProcessFilter(req, resp)
	route := req.SelectedRoutePath()
	apiRequests.WithLabelValues(route, strconv.Itoa(resp.StatusCode())).Inc()
	log.Logger().Info(fmt.Sprintf("%s %s", req.Request.Method, req.Request.URL),
		zap.Int("status_code", resp.StatusCode()))
}

// CreateWebService creates web service.
func (s *RestServer) CreateWebService() {
	ws := s.WebService
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Path("/api/")
	ws.Filter(LogFilter)

	ws.Route(ws.GET("/health").To(s.getHealth).
		Doc("Check the health of the server.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Writes(HealthResponse{}))
	ws.Route(ws.GET("/search").To(s.searchItems).
		Doc("Search items by English or Japanese title.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"search"}).
		Param(ws.QueryParameter("query", "search query").DataType("string")).
		Param(ws.QueryParameter("limit", "number of returned items").DataType("integer")).
		Writes(SearchResponse{}))
	ws.Route(ws.GET("/recommend/{item-id}").To(s.getRecommend).
		Doc("Get recommendations for an item.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommend"}).
		Param(ws.PathParameter("item-id", "identifier of the item").DataType("integer")).
		Param(ws.QueryParameter("limit", "number of returned items").DataType("integer")).
		Writes(RecommendResponse{}))
	ws.Route(ws.POST("/recommend/batch").To(s.batchRecommend).
		Doc("Get aggregated recommendations for a list of items.").
		Metadata(restfulspec.KeyOpenAPITags, []string{"recommend"}).
		Reads(BatchRequest{}).
		Writes(RecommendResponse{}))
}

type HealthResponse struct {
	Status string `json:"status"`
}

type SearchResult struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

type RecommendResponse struct {
	Recommendations []logics.Candidate `json:"recommendations"`
	Method          string             `json:"method"`
	Message         string             `json:"message"`
	InputTitles     []string           `json:"input_titles,omitempty"`
}

type BatchRequest struct {
	IDs     []int `json:"ids"`
	Exclude []int `json:"exclude,omitempty"`
	Limit   int   `json:"limit,omitempty"`
}

func (s *RestServer) getHealth(_ *restful.Request, response *restful.Response) {
	Ok(response, HealthResponse{Status: "alive"})
}

func (s *RestServer) searchItems(request *restful.Request, response *restful.Response) {
	query := request.QueryParameter("query")
	limit, err := parseLimit(request.QueryParameter("limit"), 5)
	if err != nil {
		BadRequest(response, err)
		return
	}
	items, err := s.SearchIndex.Search(query, limit)
	if err != nil {
		writeError(response, err)
		return
	}
	Ok(response, SearchResponse{
		Results: lo.Map(items, func(item *metadata.Item, _ int) SearchResult {
			return SearchResult{ID: item.ID, Title: item.Title()}
		}),
	})
}

func (s *RestServer) getRecommend(request *restful.Request, response *restful.Response) {
	itemID, err := strconv.Atoi(request.PathParameter("item-id"))
	if err != nil {
		BadRequest(response, errors.BadRequestf("invalid item id"))
		return
	}
	limit, err := parseLimit(request.QueryParameter("limit"), 10)
	if err != nil {
		BadRequest(response, err)
		return
	}
	cacheKey := fmt.Sprintf("recommend/%d/%d", itemID, limit)
	if entry := s.cache.Get(cacheKey); entry != nil {
		writeResult(response, entry.Value())
		return
	}
	result, err := s.Recommender.Recommend(itemID, limit)
	if err != nil {
		writeError(response, err)
		return
	}
	s.cache.Set(cacheKey, result, ttlcache.DefaultTTL)
	writeResult(response, result)
}

func (s *RestServer) batchRecommend(request *restful.Request, response *restful.Response) {
	var body BatchRequest
	if err := request.ReadEntity(&body); err != nil {
		BadRequest(response, errors.Trace(err))
		return
	}
	if body.Limit == 0 {
		body.Limit = 20
	}
	result, err := s.Recommender.RecommendBatch(body.IDs, body.Limit, body.Exclude)
	if err != nil {
		writeError(response, err)
		return
	}
	writeResult(response, result)
}

func writeResult(response *restful.Response, result *logics.Result) {
	Ok(response, RecommendResponse{
		Recommendations: result.Candidates,
		Method:          result.Method,
		Message:         result.Message,
		InputTitles:     result.InputTitles,
	})
}

func parseLimit(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, errors.BadRequestf("invalid limit %q", raw)
	}
	return limit, nil
}

func writeError(response *restful.Response, err error) {
	switch {
	case errors.IsNotFound(err):
		PageNotFound(response, err)
	case errors.IsBadRequest(err):
		BadRequest(response, err)
	default:
		InternalServerError(response, err)
	}
}

// BadRequest returns a bad request error.
func BadRequest(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("bad request", zap.Error(err))
	if err = response.WriteError(http.StatusBadRequest, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// InternalServerError returns a internal server error.
func InternalServerError(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	log.ResponseLogger(response).Error("internal server error", zap.Error(err))
	if err = response.WriteError(http.StatusInternalServerError, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// PageNotFound returns a not found error.
func PageNotFound(response *restful.Response, err error) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteError(http.StatusNotFound, err); err != nil {
		log.Logger().Error("failed to write error", zap.Error(err))
	}
}

// Ok sends the content as JSON to the client.
func Ok(response *restful.Response, content interface{}) {
	response.Header().Set("Access-Control-Allow-Origin", "*")
	if err := response.WriteAsJson(content); err != nil {
		log.Logger().Error("failed to write json", zap.Error(err))
	}
}
