package model_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/incomelens/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func f(v float64) *float64 { return &v }

func TestPredictionInput_ExpectedRange(t *testing.T) {
	Convey("Given a prediction input", t, func() {
		in := model.PredictionInput{Age: 35, Education: "Bachelors", Occupation: "Sales", HoursPerWeek: 40}

		Convey("When no bounds are supplied", func() {
			_, _, ok := in.ExpectedRange()

			Convey("Then the range should be absent", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When both bounds are supplied", func() {
			in.ExpectedMinSalary = f(700000)
			in.ExpectedMaxSalary = f(1500000)
			lo, hi, ok := in.ExpectedRange()

			Convey("Then the bounds should be returned", func() {
				So(ok, ShouldBeTrue)
				So(lo, ShouldEqual, 700000)
				So(hi, ShouldEqual, 1500000)
			})
		})

		Convey("When one bound is zero", func() {
			in.ExpectedMinSalary = f(700000)
			in.ExpectedMaxSalary = f(0)
			_, _, ok := in.ExpectedRange()

			Convey("Then the range should be absent", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When features are extracted", func() {
			in.Region = "Rural"
			in.ExpectedMinSalary = f(1)
			body, err := json.Marshal(in.Features())

			Convey("Then only the model features should be encoded", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual,
					`{"age":35,"education":"Bachelors","occupation":"Sales","hoursPerWeek":40,"region":"Rural"}`)
			})
		})
	})
}

func TestFeatureImportance(t *testing.T) {
	Convey("Given feature importance in service order", t, func() {
		fi := model.FeatureImportance{
			{Name: "education", Weight: 0.3},
			{Name: "age", Weight: 0.25},
			{Name: "hours", Weight: 0.1},
		}

		Convey("When encoded to JSON", func() {
			body, err := json.Marshal(fi)

			Convey("Then the object keys should keep their order", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, `{"education":0.3,"age":0.25,"hours":0.1}`)
			})
		})

		Convey("When empty", func() {
			body, err := json.Marshal(model.FeatureImportance{})

			Convey("Then it should encode as an empty object", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, `{}`)
			})
		})

		Convey("When looking up a weight", func() {
			w, ok := fi.Weight("age")
			_, missing := fi.Weight("region")

			Convey("Then known names should resolve", func() {
				So(ok, ShouldBeTrue)
				So(w, ShouldEqual, 0.25)
				So(missing, ShouldBeFalse)
			})
		})
	})
}

func TestClassification_Bracket(t *testing.T) {
	Convey("Given the two classifications", t, func() {
		So(model.HighIncome.Bracket(), ShouldEqual, ">50K")
		So(model.StandardIncome.Bracket(), ShouldEqual, "<=50K")
	})
}

func TestUnifiedPredictionResult_JSON(t *testing.T) {
	Convey("Given a fallback result", t, func() {
		res := model.UnifiedPredictionResult{
			Classification:    model.StandardIncome,
			IncomeBracket:     "<=50K",
			ConfidencePercent: 70,
			Explanation:       "Using basic prediction model (ML service unavailable)",
		}

		Convey("When encoded", func() {
			body, err := json.Marshal(res)

			Convey("Then model signals and importance should be omitted", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldNotContainSubstring, "modelSignals")
				So(string(body), ShouldNotContainSubstring, "featureImportance")
				So(string(body), ShouldNotContainSubstring, "plots")
			})
		})
	})
}

func TestRequestFailedError(t *testing.T) {
	Convey("Given a request failure with a detail", t, func() {
		err := &model.RequestFailedError{StatusCode: 422, Detail: "bad input"}

		Convey("Then it should read as a prediction failure", func() {
			So(err.Error(), ShouldEqual, "failed to get ML predictions: bad input")
		})

		Convey("And it should match the sentinel when wrapped", func() {
			wrapped := fmt.Errorf("predict: %w", err)
			So(errors.Is(wrapped, model.ErrRequestFailed), ShouldBeTrue)
			So(errors.Is(wrapped, model.ErrServiceUnavailable), ShouldBeFalse)

			var rf *model.RequestFailedError
			So(errors.As(wrapped, &rf), ShouldBeTrue)
			So(rf.StatusCode, ShouldEqual, 422)
		})
	})
}
