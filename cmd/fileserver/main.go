package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
)

// cmd/fileserver is a minimal HTTP origin for exercising cmd/central and
// cmd/peripheral end to end without a real internet endpoint: one route
// that echoes the verb and body, and a static file server for everything
// else. Kept near-verbatim from fileserver/main.go, which already served
// this purpose in the teacher repo.

func methodHandler(w http.ResponseWriter, r *http.Request) {
	log.Printf("%s to /method", r.Method)
	switch r.Method {

	case http.MethodDelete:
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "You sent a DELETE")

	case http.MethodHead:
		w.WriteHeader(http.StatusOK)

	case http.MethodPut:
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "You sent a PUT, with body %s", string(b))

	case http.MethodPost:
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, "You sent a POST, with body %s", string(b))

	default:
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "You sent a %s", r.Method)
	}
}

func main() {
	port := flag.String("p", "8100", "port to serve on")
	directory := flag.String("d", ".", "the directory of static files to host")
	flag.Parse()

	http.HandleFunc("/method", methodHandler)
	http.Handle("/", http.FileServer(http.Dir(*directory)))

	log.Printf("serving %s on HTTP port %s", *directory, *port)
	log.Fatal(http.ListenAndServe(":"+*port, nil))
}
