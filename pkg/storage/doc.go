// Package storage manages the output directory a run writes its report into.
//
// Files are written to a temporary name and renamed into place, so a report
// that fails halfway never replaces the previous one:
//
//	manager, err := storage.NewManager("./lib")
//	if err != nil {
//	    return err
//	}
//	path, err := manager.WriteFile("report.html", func(w io.Writer) error {
//	    return builder.Render(w, tweets)
//	})
package storage
