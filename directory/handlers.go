package directory

import (
	"encoding/json"
	"log"
	"net/http"
)

const maxBodyBytes = 1 << 16

// Handler serves the directory HTTP API:
//
//	GET    /rooms            list rooms
//	POST   /rooms            create a room
//	PUT    /rooms/{id}       register or replace a room
//	DELETE /rooms/{id}       remove a room
//	POST   /rooms/heartbeat  report room occupancy
func Handler(d *Directory) http.Handler {
	mux := http.NewServeMux()
	Register(mux, d)
	return mux
}

// Register adds the directory routes to mux
func Register(mux *http.ServeMux, d *Directory) {
	mux.HandleFunc("GET /rooms", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.List())
	})

	mux.HandleFunc("POST /rooms", func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if !readJSON(w, r, &req) {
			return
		}
		resp := d.Create(req)
		log.Printf("Room %s created", resp.RoomID)
		writeJSON(w, http.StatusCreated, resp)
	})

	mux.HandleFunc("PUT /rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		var info RoomInfo
		if !readJSON(w, r, &info) {
			return
		}
		info.RoomID = r.PathValue("id")
		if info.Status == "" {
			info.Status = StatusWaiting
		}
		d.Upsert(info)
		writeJSON(w, http.StatusOK, info)
	})

	mux.HandleFunc("DELETE /rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !d.Delete(r.PathValue("id")) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /rooms/heartbeat", func(w http.ResponseWriter, r *http.Request) {
		var hb Heartbeat
		if !readJSON(w, r, &hb) {
			return
		}
		if hb.RoomID == "" {
			http.Error(w, "missing roomId", http.StatusBadRequest)
			return
		}
		d.Heartbeat(hb)
		w.WriteHeader(http.StatusNoContent)
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}
