package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sleepstars/periop-assistant/internal/logger"
	"github.com/sleepstars/periop-assistant/internal/mockupstream"
)

func main() {
	port := flag.Int("port", 8001, "Port to run the server on")
	modeName := flag.String("mode", "ok", "Behavior: ok, status, malformed or hang")
	status := flag.Int("status", 500, "HTTP status returned in status mode")
	reply := flag.String("reply", "", "Fixed completion text in ok mode")
	flag.Parse()

	logger.InitLogger(logger.INFO, "mockserver")
	log := logger.GetLogger()

	mode, err := mockupstream.ParseMode(*modeName)
	if err != nil {
		log.WithError(err).Fatal("Invalid -mode")
	}

	gin.SetMode(gin.ReleaseMode)
	r := mockupstream.NewRouter(mockupstream.Options{Mode: mode, Status: *status, Reply: *reply})

	log.Info("Mock upstream listening on :%d in %s mode (base URL http://localhost:%d/v1)", *port, mode, *port)
	if err := r.Run(fmt.Sprintf(":%d", *port)); err != nil {
		log.WithError(err).Fatal("Server error")
	}
}
