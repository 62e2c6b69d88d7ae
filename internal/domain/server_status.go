package domain

import "fmt"

type ServerStatus struct {
	Clients    int `json:"clients"`
	MaxClients int `json:"sv_maxclients"`
}

func (s ServerStatus) Label() string {
	return fmt.Sprintf("%d/%d Players Online", s.Clients, s.MaxClients)
}
