package i18n

type texts map[string]string

var messages = map[string]texts{
	"title":                {"en": "Student Success Predictor", "id": "Prediksi Keberhasilan Mahasiswa"},
	"intro":                {"en": "Enter the student's information to predict their academic outcome.", "id": "Masukkan data mahasiswa untuk memprediksi hasil akademiknya."},
	"group.academic":       {"en": "Academic Information", "id": "Informasi Akademik"},
	"group.personal":       {"en": "Personal Information", "id": "Informasi Pribadi"},
	"group.performance":    {"en": "Academic Performance", "id": "Performa Akademik"},
	"predict":              {"en": "Predict", "id": "Prediksi"},
	"result":               {"en": "Prediction Result", "id": "Hasil Prediksi"},
	"recommendations":      {"en": "Recommendations", "id": "Rekomendasi"},
	"probabilities":        {"en": "Class probabilities", "id": "Probabilitas kelas"},
	"download":             {"en": "Download Prediction Report", "id": "Unduh Laporan Prediksi"},
	"back":                 {"en": "New prediction", "id": "Prediksi baru"},
	"sample":               {"en": "View Sample Data", "id": "Lihat Contoh Data"},
	"sample.caption":       {"en": "This is a sample of the data used to train the model.", "id": "Ini adalah contoh data yang digunakan untuk melatih model."},
	"history":              {"en": "Prediction History", "id": "Riwayat Prediksi"},
	"history.empty":        {"en": "No predictions yet.", "id": "Belum ada prediksi."},
	"export":               {"en": "Export to Excel", "id": "Ekspor ke Excel"},
	"status":               {"en": "Status", "id": "Status"},
	"history.created":      {"en": "Created", "id": "Dibuat"},
	"history.outcome":      {"en": "Outcome", "id": "Hasil"},
	"history.model":        {"en": "Model", "id": "Model"},
	"history.confidence":   {"en": "Confidence", "id": "Keyakinan"},
	"history.disabled":     {"en": "Prediction history is disabled.", "id": "Riwayat prediksi tidak aktif."},
	"status.resources":     {"en": "Loaded files", "id": "Berkas yang dimuat"},
	"status.alignment":     {"en": "Feature alignment", "id": "Penyelarasan fitur"},
	"status.latency":       {"en": "Inference latency", "id": "Latensi inferensi"},
	"status.activity":      {"en": "Recent activity", "id": "Aktivitas terbaru"},
	"missing.retry":        {"en": "Reload this page once the files are in place.", "id": "Muat ulang halaman ini setelah berkas tersedia."},
	"invalid":              {"en": "Please correct the highlighted fields.", "id": "Mohon perbaiki isian yang ditandai."},
	"error.generic":        {"en": "Something went wrong while making the prediction. Please try again.", "id": "Terjadi kesalahan saat membuat prediksi. Silakan coba lagi."},
	"alignment.fabricated": {"en": "Warning: the model input was padded or truncated to fit the model.", "id": "Peringatan: input model ditambah atau dipotong agar sesuai dengan model."},
	"alignment.unused":     {"en": "The model does not use these form fields:", "id": "Model tidak menggunakan isian berikut:"},
	"missing.title":        {"en": "Required files are missing or cannot be loaded.", "id": "Berkas yang diperlukan tidak ada atau tidak dapat dimuat."},
	"missing.intro":        {"en": "Please make sure you have:", "id": "Pastikan Anda memiliki:"},
	"missing.model":        {"en": "The trained model file", "id": "Berkas model terlatih"},
	"missing.dataset":      {"en": "The dataset file", "id": "Berkas dataset"},
	"headline.dropout":     {"en": "The student is predicted to Dropout", "id": "Mahasiswa diprediksi Putus Studi"},
	"headline.enrolled":    {"en": "The student is predicted to be Enrolled", "id": "Mahasiswa diprediksi masih Terdaftar"},
	"headline.graduate":    {"en": "The student is predicted to Graduate", "id": "Mahasiswa diprediksi Lulus"},
	"headline.at_risk":     {"en": "The student is at risk of dropping out", "id": "Mahasiswa berisiko putus studi"},
	"headline.not_at_risk": {"en": "The student is not at risk of dropping out", "id": "Mahasiswa tidak berisiko putus studi"},
}

var fieldLabels = map[string]texts{
	"Application_mode":                     {"id": "Jalur Pendaftaran"},
	"Course":                               {"id": "Program Studi"},
	"Previous_qualification_grade":         {"id": "Nilai Kualifikasi Sebelumnya"},
	"Mothers_qualification":                {"id": "Pendidikan Ibu"},
	"Fathers_qualification":                {"id": "Pendidikan Ayah"},
	"Mothers_occupation":                   {"id": "Pekerjaan Ibu"},
	"Fathers_occupation":                   {"id": "Pekerjaan Ayah"},
	"Admission_grade":                      {"id": "Nilai Masuk"},
	"Displaced":                            {"id": "Merantau"},
	"Gender":                               {"id": "Jenis Kelamin"},
	"Scholarship_holder":                   {"id": "Penerima Beasiswa"},
	"Age_at_enrollment":                    {"id": "Usia saat Mendaftar"},
	"Curricular_units_1st_sem_enrolled":    {"id": "SKS Diambil Semester 1"},
	"Curricular_units_1st_sem_evaluations": {"id": "SKS Dievaluasi Semester 1"},
	"Curricular_units_1st_sem_approved":    {"id": "SKS Lulus Semester 1"},
	"Curricular_units_2nd_sem_enrolled":    {"id": "SKS Diambil Semester 2"},
	"Curricular_units_2nd_sem_evaluations": {"id": "SKS Dievaluasi Semester 2"},
	"Curricular_units_2nd_sem_approved":    {"id": "SKS Lulus Semester 2"},
}

var optionLabels = map[string]texts{
	"yes":    {"id": "Ya"},
	"no":     {"id": "Tidak"},
	"male":   {"id": "Laki-laki"},
	"female": {"id": "Perempuan"},
}

var recommendationText = map[string]texts{
	"Consider additional academic support":   {"id": "Pertimbangkan dukungan akademik tambahan"},
	"Review course load and difficulty":      {"id": "Tinjau beban dan tingkat kesulitan mata kuliah"},
	"Check for personal or financial issues": {"id": "Periksa kemungkinan masalah pribadi atau keuangan"},
	"Continue current academic support":      {"id": "Lanjutkan dukungan akademik saat ini"},
	"Monitor progress regularly":             {"id": "Pantau kemajuan secara berkala"},
	"Maintain good study habits":             {"id": "Pertahankan kebiasaan belajar yang baik"},
	"Continue excellent performance":         {"id": "Pertahankan prestasi yang sangat baik"},
	"Consider advanced courses":              {"id": "Pertimbangkan mata kuliah lanjutan"},
	"Plan for post-graduation":               {"id": "Rencanakan langkah setelah lulus"},
}
