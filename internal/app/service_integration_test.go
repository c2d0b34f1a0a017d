package service_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/incomelens/internal/adapters/mlservice"
	service "github.com/okian/incomelens/internal/app"
	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

// mlServer is a scripted prediction service.
type mlServer struct {
	healthStatus  int
	healthDelay   time.Duration
	predictStatus int
	predictBody   string
	healthCalls   atomic.Int32
	predictCalls  atomic.Int32
}

func (m *mlServer) start() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		m.healthCalls.Add(1)
		if m.healthDelay > 0 {
			select {
			case <-time.After(m.healthDelay):
			case <-r.Context().Done():
				return
			}
		}
		w.WriteHeader(m.healthStatus)
	})
	mux.HandleFunc("POST /predict", func(w http.ResponseWriter, _ *http.Request) {
		m.predictCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(m.predictStatus)
		_, _ = io.WriteString(w, m.predictBody)
	})
	return httptest.NewServer(mux)
}

func newIntegrationService(url string, opts ...mlservice.Option) *service.Service {
	client, err := mlservice.New(url, opts...)
	So(err, ShouldBeNil)
	return service.New(prediction.NewOrchestrator(client), service.WithWorkerCount(2))
}

func professional() model.PredictionInput {
	return model.PredictionInput{
		Age:          35,
		Education:    "Bachelors",
		Occupation:   "Prof-specialty",
		HoursPerWeek: 40,
		Region:       "Urban-Med",
	}
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a healthy prediction service", t, func() {
		ml := &mlServer{
			healthStatus:  http.StatusOK,
			predictStatus: http.StatusOK,
			predictBody:   `{"predictions":{"modelA":0.8,"modelB":0.6},"feature_importance":{"education":0.4,"hours":0.3}}`,
		}
		srv := ml.start()
		defer srv.Close()

		svc := newIntegrationService(srv.URL)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("When predicting for a professional", func() {
			res := svc.Predict(context.Background(), professional())

			Convey("Then the ensemble result should be merged with the estimate", func() {
				So(res.Classification, ShouldEqual, model.HighIncome)
				So(res.ConfidencePercent, ShouldEqual, 40)
				So(res.Explanation, ShouldEqual,
					"High income predicted with 40% confidence. modelA model shows strongest prediction. Key factors: education, hours.")
				So(res.SalaryEstimate.TotalSalary, ShouldEqual, 115500)
				So(res.ModelSignals, ShouldHaveLength, 2)
			})
		})

		Convey("When predicting a batch", func() {
			batch := []model.PredictionInput{professional(), professional(), professional()}
			res, err := svc.PredictBatch(context.Background(), batch)

			Convey("Then every input should reach the service once", func() {
				So(err, ShouldBeNil)
				So(res, ShouldHaveLength, 3)
				So(ml.predictCalls.Load(), ShouldEqual, 3)
				for _, r := range res {
					So(r.ConfidencePercent, ShouldEqual, 40)
				}
			})
		})
	})

	Convey("Given a prediction service that never answers its probe in time", t, func() {
		ml := &mlServer{healthStatus: http.StatusOK, healthDelay: time.Second}
		srv := ml.start()
		defer srv.Close()

		svc := newIntegrationService(srv.URL, mlservice.WithHealthTimeout(50*time.Millisecond))

		Convey("When predicting", func() {
			res := svc.Predict(context.Background(), professional())

			Convey("Then the fallback result should be returned without inference", func() {
				So(res.Classification, ShouldEqual, model.HighIncome)
				So(res.ConfidencePercent, ShouldEqual, prediction.FallbackConfidence)
				So(res.Explanation, ShouldEqual, prediction.FallbackExplanation)
				So(res.ModelSignals, ShouldBeNil)
				So(ml.predictCalls.Load(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a prediction service failing inference", t, func() {
		ml := &mlServer{
			healthStatus:  http.StatusOK,
			predictStatus: http.StatusInternalServerError,
			predictBody:   `{"detail":"model error"}`,
		}
		srv := ml.start()
		defer srv.Close()

		svc := newIntegrationService(srv.URL)

		Convey("When predicting for a low earner", func() {
			in := model.PredictionInput{Age: 20, Education: "HS-grad", Occupation: "Other", HoursPerWeek: 20, Region: "Rural"}
			res := svc.Predict(context.Background(), in)

			Convey("Then the fallback should classify by salary", func() {
				So(res.Classification, ShouldEqual, model.StandardIncome)
				So(res.IncomeBracket, ShouldEqual, "<=50K")
				So(res.FeatureImportance, ShouldBeNil)
			})
		})
	})
}

// predictConcurrently runs n orchestrator predictions at once and counts fallbacks.
func predictConcurrently(o *prediction.Orchestrator, n int) int32 {
	var (
		wg        sync.WaitGroup
		fallbacks atomic.Int32
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := o.Predict(context.Background(), professional())
			if res.Explanation == prediction.FallbackExplanation {
				fallbacks.Add(1)
			}
		}()
	}
	wg.Wait()
	return fallbacks.Load()
}

func TestServiceIntegration_ConcurrentLoad(t *testing.T) {
	Convey("Given a healthy prediction service under concurrent load", t, func() {
		ml := &mlServer{
			healthStatus:  http.StatusOK,
			predictStatus: http.StatusOK,
			predictBody:   `{"predictions":{"modelA":0.8},"feature_importance":{"education":0.4}}`,
		}
		srv := ml.start()
		defer srv.Close()

		Convey("When a default client serves many simultaneous predictions", func() {
			client, err := mlservice.New(srv.URL)
			So(err, ShouldBeNil)
			fallbacks := predictConcurrently(prediction.NewOrchestrator(client), 150)

			Convey("Then none should fall back", func() {
				So(fallbacks, ShouldEqual, 0)
				So(ml.healthCalls.Load(), ShouldEqual, 150)
				So(ml.predictCalls.Load(), ShouldEqual, 150)
			})
		})

		Convey("When the limiter queues calls past the probe deadline", func() {
			client, err := mlservice.New(srv.URL,
				mlservice.WithRateLimit(40, 2),
				mlservice.WithHealthTimeout(100*time.Millisecond),
			)
			So(err, ShouldBeNil)
			fallbacks := predictConcurrently(prediction.NewOrchestrator(client), 30)

			Convey("Then the wait should not count against the probe", func() {
				So(fallbacks, ShouldEqual, 0)
				So(ml.healthCalls.Load(), ShouldEqual, 30)
				So(ml.predictCalls.Load(), ShouldEqual, 30)
			})
		})
	})
}
