package salary_test

import (
	"strings"
	"testing"

	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/internal/domain/salary"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

func baseInput() model.PredictionInput {
	return model.PredictionInput{
		Age:          35,
		Education:    "Bachelors",
		Occupation:   "Prof-specialty",
		HoursPerWeek: 40,
		Region:       "Urban-Med",
	}
}

func TestEstimator_Estimate(t *testing.T) {
	Convey("Given an estimator with default tables", t, func() {
		est := salary.NewEstimator()

		Convey("When estimating a full-time professional in a mid-cost city", func() {
			res := est.Estimate(baseInput())

			Convey("Then the compound salary should be applied", func() {
				So(res.BaseSalary, ShouldEqual, 75000)
				So(res.TotalSalary, ShouldEqual, 115500)
				So(res.SalaryRange.Min, ShouldEqual, 103950)
				So(res.SalaryRange.Max, ShouldEqual, 127050)
			})

			Convey("And the factors should reflect each lookup", func() {
				So(res.Factors.Education, ShouldEqual, 1.4)
				So(res.Factors.Occupation, ShouldEqual, 1.0)
				So(res.Factors.Experience, ShouldEqual, 1.0)
				So(res.Factors.Hours, ShouldEqual, 1.0)
				So(res.Factors.Region, ShouldEqual, 1.1)
			})

			Convey("And the breakdown should be ordered", func() {
				So(res.Breakdown, ShouldHaveLength, 5)
				So(res.Breakdown[0], ShouldEqual, "Base salary for Prof-specialty: ₹75,000")
				So(res.Breakdown[1], ShouldEqual, "Education (Bachelors): 40% adjustment")
				So(res.Breakdown[2], ShouldEqual, "Experience (Age 35): 0% adjustment")
				So(res.Breakdown[3], ShouldEqual, "Hours (40hr/week): 0% adjustment")
				So(res.Breakdown[4], ShouldEqual, "Region (Urban-Med): 10% adjustment")
			})
		})

		Convey("When the occupation is not in the table", func() {
			in := baseInput()
			in.Occupation = "Astronaut"
			in.Education = "HS-grad"
			in.Age = 40
			in.Region = "Urban-Low"
			res := est.Estimate(in)

			Convey("Then the Other base salary should be used", func() {
				So(res.BaseSalary, ShouldEqual, 40000)
				So(res.TotalSalary, ShouldEqual, 40000)
				So(res.SalaryRange.Min, ShouldEqual, 36000)
				So(res.SalaryRange.Max, ShouldEqual, 44000)
			})
		})

		Convey("When education and region are unknown", func() {
			in := baseInput()
			in.Education = "Bootcamp"
			in.Region = "Mars"
			res := est.Estimate(in)

			Convey("Then the Other and Urban-Med multipliers should apply", func() {
				So(res.Factors.Education, ShouldEqual, 0.9)
				So(res.Factors.Region, ShouldEqual, 1.1)
				So(res.Breakdown[1], ShouldEqual, "Education (Bootcamp): -10% adjustment")
			})
		})

		Convey("When the region is rural", func() {
			in := baseInput()
			in.Region = "Rural"
			res := est.Estimate(in)

			Convey("Then the adjustment should be negative", func() {
				So(res.Breakdown[4], ShouldEqual, "Region (Rural): -15% adjustment")
			})
		})

		Convey("When called twice with the same input", func() {
			in := baseInput()
			in.ExpectedMinSalary = ptr(700000)
			in.ExpectedMaxSalary = ptr(1500000)

			Convey("Then the results should be identical", func() {
				So(est.Estimate(in), ShouldResemble, est.Estimate(in))
			})
		})
	})
}

func TestEstimator_AgeBands(t *testing.T) {
	Convey("Given an estimator", t, func() {
		est := salary.NewEstimator()

		cases := []struct {
			age  int
			want float64
		}{
			{16, 0.8}, {24, 0.8},
			{25, 0.9}, {34, 0.9},
			{35, 1.0}, {44, 1.0},
			{45, 1.1}, {54, 1.1},
			{55, 1.0}, {64, 1.0},
			{65, 0.9}, {90, 0.9},
		}

		for _, tc := range cases {
			in := baseInput()
			in.Age = tc.age
			So(est.Estimate(in).Factors.Experience, ShouldEqual, tc.want)
		}
	})
}

func TestEstimator_HoursBands(t *testing.T) {
	Convey("Given an estimator", t, func() {
		est := salary.NewEstimator()

		cases := []struct {
			hours int
			want  float64
		}{
			{1, 0.6}, {34, 0.6},
			{35, 1.0}, {45, 1.0},
			{46, 1.2}, {99, 1.2},
		}

		for _, tc := range cases {
			in := baseInput()
			in.HoursPerWeek = tc.hours
			So(est.Estimate(in).Factors.Hours, ShouldEqual, tc.want)
		}

		Convey("And overtime should read as a positive adjustment", func() {
			in := baseInput()
			in.HoursPerWeek = 50
			So(est.Estimate(in).Breakdown[3], ShouldEqual, "Hours (50hr/week): 20% adjustment")
		})
	})
}

func TestEstimator_ExpectedRange(t *testing.T) {
	Convey("Given an estimator", t, func() {
		est := salary.NewEstimator()

		Convey("When a mid-range profile declares a salary range", func() {
			in := model.PredictionInput{
				Age:               30,
				Education:         "HS-grad",
				Occupation:        "Sales",
				HoursPerWeek:      40,
				Region:            "Urban-Low",
				ExpectedMinSalary: ptr(700000),
				ExpectedMaxSalary: ptr(1500000),
			}
			res := est.Estimate(in)

			Convey("Then the salary should be rescaled into the range", func() {
				So(res.TotalSalary, ShouldEqual, 868889)
				So(res.TotalSalary, ShouldBeBetweenOrEqual, 700000, 1500000)
			})

			Convey("And the range should be ±10% of the total", func() {
				So(res.SalaryRange.Min, ShouldEqual, 782000)
				So(res.SalaryRange.Max, ShouldEqual, 955778)
			})
		})

		Convey("When only one bound is supplied", func() {
			in := baseInput()
			in.ExpectedMinSalary = ptr(700000)
			res := est.Estimate(in)

			Convey("Then no rescaling should happen", func() {
				So(res.TotalSalary, ShouldEqual, 115500)
			})
		})

		Convey("When a bound is zero", func() {
			in := baseInput()
			in.ExpectedMinSalary = ptr(0)
			in.ExpectedMaxSalary = ptr(1500000)
			res := est.Estimate(in)

			Convey("Then it should count as not supplied", func() {
				So(res.TotalSalary, ShouldEqual, 115500)
			})
		})

		Convey("When an extreme profile declares a salary range", func() {
			in := model.PredictionInput{
				Age:               18,
				Education:         "Other",
				Occupation:        "Other",
				HoursPerWeek:      10,
				Region:            "Rural",
				ExpectedMinSalary: ptr(300000),
				ExpectedMaxSalary: ptr(500000),
			}
			res := est.Estimate(in)

			Convey("Then the unclamped score may land below the declared minimum", func() {
				So(res.TotalSalary, ShouldBeLessThan, 300000)
				So(res.TotalSalary, ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestEstimator_CurrencyGrouping(t *testing.T) {
	Convey("Given an estimator with the default en-IN currency", t, func() {
		est := salary.NewEstimator(salary.WithOccupationSalaries(map[string]float64{"Surgeon": 1234567}))

		Convey("When the base salary has five digits", func() {
			in := baseInput()
			in.Occupation = "Exec-managerial"

			Convey("Then it should be grouped by thousands", func() {
				So(est.Estimate(in).Breakdown[0], ShouldEqual, "Base salary for Exec-managerial: ₹85,000")
			})
		})

		Convey("When the base salary reaches a lakh", func() {
			in := baseInput()
			in.Occupation = "Surgeon"

			Convey("Then it should use lakh grouping", func() {
				So(est.Estimate(in).Breakdown[0], ShouldEqual, "Base salary for Surgeon: ₹12,34,567")
			})
		})
	})
}

func TestEstimator_Options(t *testing.T) {
	Convey("Given an estimator with custom tables", t, func() {
		est := salary.NewEstimator(
			salary.WithOccupationSalaries(map[string]float64{"Pilot": 90000, "Sales": -1}),
			salary.WithEducationMultipliers(map[string]float64{"Bootcamp": 1.1}),
			salary.WithRegionMultipliers(map[string]float64{"Remote": 1.05}),
			salary.WithCurrency("en-US", "$"),
		)

		Convey("When estimating a custom occupation", func() {
			in := baseInput()
			in.Occupation = "Pilot"
			in.Education = "Bootcamp"
			in.Region = "Remote"
			res := est.Estimate(in)

			Convey("Then the overrides should be used", func() {
				So(res.BaseSalary, ShouldEqual, 90000)
				So(res.Factors.Education, ShouldEqual, 1.1)
				So(res.Factors.Region, ShouldEqual, 1.05)
				So(res.Breakdown[0], ShouldEqual, "Base salary for Pilot: $90,000")
			})
		})

		Convey("When a non-positive override was supplied", func() {
			in := baseInput()
			in.Occupation = "Sales"

			Convey("Then the default entry should be kept", func() {
				So(est.Estimate(in).BaseSalary, ShouldEqual, 55000)
			})
		})

		Convey("When the occupation is unknown", func() {
			in := baseInput()
			in.Occupation = strings.Repeat("x", 3)

			Convey("Then Other should still exist", func() {
				So(est.Estimate(in).BaseSalary, ShouldEqual, 40000)
			})
		})
	})
}
