package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/incomelens/internal/adapters/dataset"
	"github.com/okian/incomelens/internal/adapters/http/api"
	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records calls and returns scripted values.
type mockDependencies struct {
	lastInput   model.PredictionInput
	lastBatch   []model.PredictionInput
	lastReqID   string
	batchErr    error
	summary     *dataset.Summary
	predictions int
}

func (m *mockDependencies) Predict(ctx context.Context, in model.PredictionInput) model.UnifiedPredictionResult {
	m.predictions++
	m.lastInput = in
	m.lastReqID = logger.RequestID(ctx)
	return model.UnifiedPredictionResult{
		Classification:    model.HighIncome,
		IncomeBracket:     model.HighIncome.Bracket(),
		ConfidencePercent: 40,
		Explanation:       "ok",
	}
}

func (m *mockDependencies) Estimate(_ context.Context, in model.PredictionInput) model.SalaryEstimate {
	m.lastInput = in
	return model.SalaryEstimate{TotalSalary: 115500}
}

func (m *mockDependencies) PredictBatch(_ context.Context, inputs []model.PredictionInput) ([]model.UnifiedPredictionResult, error) {
	m.lastBatch = inputs
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([]model.UnifiedPredictionResult, len(inputs))
	for i, in := range inputs {
		out[i] = model.UnifiedPredictionResult{ConfidencePercent: in.Age}
	}
	return out, nil
}

func (m *mockDependencies) DatasetSummary(context.Context) (dataset.Summary, error) {
	if m.summary == nil {
		return dataset.Summary{}, model.ErrDatasetUnavailable
	}
	return *m.summary, nil
}

func (m *mockDependencies) Charts(context.Context) dataset.Charts {
	return dataset.ReferenceCharts()
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

const validInput = `{"age":35,"education":"Bachelors","occupation":"Prof-specialty","hoursPerWeek":40,"region":"Urban-Med"}`

func newMux(deps *mockDependencies, opts ...api.Option) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]string {
	var out map[string]string
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then the health endpoint should report healthy", func() {
			w := serve(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"healthy"`)
		})

		Convey("And the stats endpoint should be accessible", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And the stats endpoint should reject writes", func() {
			So(serve(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And the metrics endpoint should expose the registry", func() {
			serve(mux, http.MethodGet, "/healthz", "")
			w := serve(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("And the charts endpoint should return the reference series", func() {
			w := serve(mux, http.MethodGet, "/dataset/charts", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"educationIncome"`)
		})

		Convey("And unknown paths should not be found", func() {
			w := serve(mux, http.MethodGet, "/unknown", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And wrong methods should not be found", func() {
			So(serve(mux, http.MethodGet, "/predict", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodPost, "/healthz", "").Code, ShouldEqual, http.StatusNotFound)
			So(serve(mux, http.MethodPost, "/dataset/summary", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestStatsHandler_NoProvider(t *testing.T) {
	Convey("Given a server built without a stats provider", t, func() {
		server := api.NewServer(&mockDependencies{}, nil)
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		Convey("When requesting stats", func() {
			w := serve(mux, http.MethodGet, "/stats", "")

			Convey("Then the endpoint should report unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "unavailable")
				So(body["message"], ShouldEqual, "api.stats: unavailable")
			})
		})
	})
}

func TestPredictionHandler(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps, api.WithMaxBatchSize(2))

		Convey("When posting a valid prediction input", func() {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(validInput))
			req.Header.Set(api.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then the unified result should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res model.UnifiedPredictionResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Classification, ShouldEqual, model.HighIncome)
				So(res.ConfidencePercent, ShouldEqual, 40)
			})

			Convey("And the input should be decoded", func() {
				So(deps.lastInput.Age, ShouldEqual, 35)
				So(deps.lastInput.Region, ShouldEqual, "Urban-Med")
				So(deps.lastInput.ExpectedMinSalary, ShouldBeNil)
			})

			Convey("And the request id should be propagated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
				So(deps.lastReqID, ShouldEqual, "req-42")
			})
		})

		Convey("When the request carries no request id", func() {
			w := serve(mux, http.MethodPost, "/predict", validInput)

			Convey("Then one should be generated", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldHaveLength, 36)
				So(deps.lastReqID, ShouldEqual, w.Header().Get(api.RequestIDHeader))
			})
		})

		Convey("When posting invalid inputs", func() {
			cases := []struct {
				name string
				body string
			}{
				{"malformed JSON", `{"age":`},
				{"age below range", strings.Replace(validInput, `"age":35`, `"age":15`, 1)},
				{"age above range", strings.Replace(validInput, `"age":35`, `"age":91`, 1)},
				{"fractional age", strings.Replace(validInput, `"age":35`, `"age":35.5`, 1)},
				{"hours out of range", strings.Replace(validInput, `"hoursPerWeek":40`, `"hoursPerWeek":100`, 1)},
				{"empty education", strings.Replace(validInput, `"Bachelors"`, `""`, 1)},
				{"missing region", `{"age":35,"education":"Bachelors","occupation":"Sales","hoursPerWeek":40}`},
				{"negative salary", strings.Replace(validInput, `}`, `,"expectedMinSalary":-1}`, 1)},
			}

			for _, tc := range cases {
				w := serve(mux, http.MethodPost, "/predict", tc.body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
			}
			So(deps.predictions, ShouldEqual, 0)
		})

		Convey("When posting an input with salary expectations", func() {
			body := strings.Replace(validInput, `}`, `,"expectedMinSalary":700000,"expectedMaxSalary":1500000}`, 1)
			w := serve(mux, http.MethodPost, "/estimate", body)

			Convey("Then the estimate should be returned with the bounds decoded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"totalSalary":115500`)
				So(*deps.lastInput.ExpectedMinSalary, ShouldEqual, 700000)
				So(*deps.lastInput.ExpectedMaxSalary, ShouldEqual, 1500000)
			})
		})

		Convey("When posting a batch", func() {
			body := `{"inputs":[` + validInput + `,` + strings.Replace(validInput, `"age":35`, `"age":50`, 1) + `]}`
			w := serve(mux, http.MethodPost, "/predict/batch", body)

			Convey("Then results should be returned in input order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var res struct {
					Results []model.UnifiedPredictionResult `json:"results"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Results, ShouldHaveLength, 2)
				So(res.Results[0].ConfidencePercent, ShouldEqual, 35)
				So(res.Results[1].ConfidencePercent, ShouldEqual, 50)
			})
		})

		Convey("When posting a batch over the limit", func() {
			body := `{"inputs":[` + strings.Repeat(validInput+`,`, 2) + validInput + `]}`
			w := serve(mux, http.MethodPost, "/predict/batch", body)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "limit_exceeded")
				So(deps.lastBatch, ShouldBeNil)
			})
		})

		Convey("When a batch item is invalid", func() {
			body := `{"inputs":[` + validInput + `,{"age":35}]}`
			w := serve(mux, http.MethodPost, "/predict/batch", body)

			Convey("Then the whole batch should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.lastBatch, ShouldBeNil)
			})
		})

		Convey("When the batch is empty", func() {
			w := serve(mux, http.MethodPost, "/predict/batch", `{"inputs":[]}`)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the batch queue is full", func() {
			deps.batchErr = model.ErrBackpressure
			w := serve(mux, http.MethodPost, "/predict/batch", `{"inputs":[`+validInput+`]}`)

			Convey("Then backpressure should be reported", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decodeError(w)["code"], ShouldEqual, "backpressure")
			})
		})

		Convey("When the batch fails unexpectedly", func() {
			deps.batchErr = context.Canceled
			w := serve(mux, http.MethodPost, "/predict/batch", `{"inputs":[`+validInput+`]}`)

			Convey("Then the service should be reported unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestDatasetHandler(t *testing.T) {
	Convey("Given a server without a loaded dataset", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When requesting the summary", func() {
			w := serve(mux, http.MethodGet, "/dataset/summary", "")

			Convey("Then it should be unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeError(w)["code"], ShouldEqual, "unavailable")
			})
		})

		Convey("When a dataset is loaded", func() {
			deps.summary = &dataset.Summary{TotalRows: 2, Columns: []string{"age"}}
			w := serve(mux, http.MethodGet, "/dataset/summary", "")

			Convey("Then the summary should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"totalRows":2`)
			})
		})
	})
}
