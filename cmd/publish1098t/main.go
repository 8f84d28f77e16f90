package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/campusbridge/taxforms-backend/internal/app"
	"github.com/campusbridge/taxforms-backend/internal/services"
)

func main() {
	year := flag.Int("year", 0, "tax year to publish (required)")
	studentID := flag.String("student", "", "publish a single student by id")
	regenerate := flag.Bool("regenerate", false, "replace already-published forms")
	flag.Parse()

	if *year == 0 {
		fmt.Fprintln(os.Stderr, "usage: publish1098t -year <tax year> [-student <id>] [-regenerate]")
		os.Exit(2)
	}

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx := context.Background()
	publisher, err := a.Services.PublisherFactory.ForYear(ctx, *year, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot publish for %d: %v\n", *year, err)
		os.Exit(1)
	}

	if *studentID != "" {
		id, err := uuid.Parse(*studentID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid student id %q: %v\n", *studentID, err)
			os.Exit(2)
		}
		student, err := a.Repos.Student.GetByID(ctx, nil, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Load student: %v\n", err)
			os.Exit(1)
		}
		if student == nil {
			fmt.Fprintf(os.Stderr, "Student %s not found\n", id)
			os.Exit(1)
		}
		outcome, err := publisher.PublishStudent(ctx, student, *regenerate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Publish failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: %s\n", student.FullName(), outcome)
		return
	}

	result, err := publisher.PublishAll(ctx, nil, *regenerate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Publish run failed: %v\n", err)
		os.Exit(1)
	}
	// Per-student failures are reported but do not fail the run; the batch is
	// resumable and the remaining students were still processed.
	printResult(*year, result)
}

func printResult(year int, result services.BatchResult) {
	fmt.Printf("Tax year %d: %d published, %d skipped, %d errors\n",
		year, result.SuccessCount, result.SkippedCount, result.ErrorCount)
	for _, e := range result.Errors {
		fmt.Printf("  %s (%s): %s\n", e.StudentName, e.StudentID, e.Error)
	}
}
