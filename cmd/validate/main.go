// created_at tutarlılık denetimi: imleçli sayfalama created_at alanına
// dayandığından, alanı eksik/sıfır olan beyannameler sayfalamayı bozar.
// Bu araç sorunlu kayıtları listeler; -repair ile, completed_at değeri
// olan kayıtlarda o değer created_at'e kopyalanır (eski verideki alan
// karışıklığının düzeltmesi).
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/oguzkagan/beyanname-takip/config"
	"github.com/oguzkagan/beyanname-takip/models"
	"github.com/oguzkagan/beyanname-takip/utils"
)

func main() {
	repair := flag.Bool("repair", false, "sorunlu kayıtları düzeltmeyi dene")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}
	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	var declarations []models.Declaration
	if err := db.Find(&declarations).Error; err != nil {
		utils.ErrorLogger.Fatalf("Failed to fetch declarations: %v", err)
	}

	checked := 0
	problems := 0
	repaired := 0
	for _, d := range declarations {
		checked++
		if !d.CreatedAt.IsZero() {
			continue
		}
		problems++
		if d.CompletedAt != nil {
			utils.InfoLogger.Printf("id=%s created_at eksik, completed_at mevcut", d.ID)
			if *repair {
				err := db.Model(&models.Declaration{}).
					Where("id = ?", d.ID).
					Update("created_at", *d.CompletedAt).Error
				if err != nil {
					utils.ErrorLogger.Printf("id=%s düzeltilemedi: %v", d.ID, err)
					continue
				}
				repaired++
			}
		} else {
			utils.InfoLogger.Printf("id=%s created_at eksik", d.ID)
		}
	}

	utils.InfoLogger.Printf("%d kayıt kontrol edildi, %d sorunlu, %d düzeltildi", checked, problems, repaired)
	if problems > repaired {
		utils.ErrorLogger.Printf("%d kayıt hâlâ sorunlu; bu kayıtlar sayfalamada atlanabilir", problems-repaired)
	}
}
